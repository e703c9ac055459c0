package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
)

// Movement is one stock change against a product and one of its stock rows.
type Movement struct {
	Key         StockKey
	ProductName string
	Quantity    int
}

type compensationRecorder interface {
	AddCompensation(reason string, units int)
}

// Ledger is the only writer of stock levels. Every change moves the
// company-wide product total and the matched stock row together, and every
// decrement is conditional so concurrent checkouts cannot oversell.
type Ledger struct {
	repo    Repository
	logg    *logger.Logger
	metrics compensationRecorder
}

// NewLedger builds the inventory ledger. metrics may be nil.
func NewLedger(repo Repository, logg *logger.Logger, metrics compensationRecorder) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Ledger{repo: repo, logg: logg, metrics: metrics}, nil
}

// Decrement removes the quantity from the product total and the stock row. It
// must run inside the caller's transaction; a short row fails with
// InsufficientStock and the caller's rollback undoes any partial change.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, mv Movement) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}
	if mv.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := l.repo.WithTx(tx)

	ok, err := repo.DecrementProduct(ctx, mv.Key.ProductID, mv.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement product stock")
	}
	if !ok {
		return pkgerrors.InsufficientStock(mv.ProductName)
	}

	ok, err = repo.DecrementStock(ctx, mv.Key, mv.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement store stock")
	}
	if !ok {
		return pkgerrors.InsufficientStock(mv.ProductName)
	}
	return nil
}

// Restore is the compensating increment for a refunded cancel or return. A
// missing stock row is recreated so returned units are never lost.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, mv Movement, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}
	if mv.Quantity <= 0 {
		return nil
	}
	repo := l.repo.WithTx(tx)

	ok, err := repo.IncrementProduct(ctx, mv.Key.ProductID, mv.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment product stock")
	}
	if !ok {
		return pkgerrors.ProductNotFound(mv.Key.ProductID.String())
	}

	ok, err = repo.IncrementStock(ctx, mv.Key, mv.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment store stock")
	}
	if !ok {
		if err := repo.CreateStock(ctx, mv.Key, mv.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recreate stock row")
		}
	}

	if l.metrics != nil {
		l.metrics.AddCompensation(reason, mv.Quantity)
	}
	if l.logg != nil {
		fields := map[string]any{
			"product_id": mv.Key.ProductID.String(),
			"company_id": mv.Key.CompanyID.String(),
			"quantity":   mv.Quantity,
			"reason":     reason,
		}
		if mv.Key.StoreID != nil {
			fields["store_id"] = mv.Key.StoreID.String()
		}
		l.logg.Info(l.logg.WithFields(ctx, fields), "stock restored")
	}
	return nil
}
