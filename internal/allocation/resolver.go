package allocation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/internal/inventory"
	"github.com/angelmondragon/fulfillment-engine/internal/stores"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

// Source is the read side allocation needs. Implementations are bound to the
// placement transaction so the stock they report is the stock that will be
// decremented.
type Source interface {
	ThirdPartyServing(ctx context.Context, companyID uuid.UUID, postalCode string) ([]models.Store, error)
	CompanyOwnStore(ctx context.Context, companyID uuid.UUID) (*models.Store, error)
	StoreStock(ctx context.Context, productID uuid.UUID, storeIDs []uuid.UUID) (map[uuid.UUID]int, error)
	PoolStock(ctx context.Context, companyID, productID uuid.UUID) (int, error)
}

// Request is one line to allocate.
type Request struct {
	ProductID   uuid.UUID
	ProductName string
	CompanyID   uuid.UUID
	Quantity    int
	Pincode     string
	Role        enums.ActorRole
	Aggregated  bool
}

// Result names the sub-order owner and the stock row backing the line.
type Result struct {
	StoreID   uuid.UUID
	CompanyID uuid.UUID
	Tier      enums.AllocationTier
	// Key is the stock row to decrement; meaningful only when Deduct is set.
	Key    inventory.StockKey
	Deduct bool
}

// Resolver picks the fulfillment source for a line: a third-party store
// serving the pincode, then the company's own store, then the unassigned pool.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve applies the precedence and returns the first source with enough
// stock. A store actor placing an aggregated order is routed to the company's
// own store without a stock check and without a decrement.
func (r *Resolver) Resolve(ctx context.Context, src Source, req Request) (Result, error) {
	if src == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "allocation source required")
	}
	if req.Quantity <= 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if req.Aggregated && req.Role == enums.ActorRoleStore {
		return r.transfer(ctx, src, req)
	}

	candidates, err := src.ThirdPartyServing(ctx, req.CompanyID, req.Pincode)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load serving stores")
	}
	if len(candidates) > 0 {
		ids := make([]uuid.UUID, 0, len(candidates))
		for _, store := range candidates {
			ids = append(ids, store.ID)
		}
		levels, err := src.StoreStock(ctx, req.ProductID, ids)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store stock")
		}
		for _, store := range candidates {
			if levels[store.ID] >= req.Quantity {
				return Result{
					StoreID:   store.ID,
					CompanyID: req.CompanyID,
					Tier:      enums.AllocationTierThirdPartyStore,
					Key:       inventory.AtStore(store.ID, req.CompanyID, req.ProductID),
					Deduct:    true,
				}, nil
			}
		}
	}

	own, err := src.CompanyOwnStore(ctx, req.CompanyID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company store")
	}
	if own != nil {
		levels, err := src.StoreStock(ctx, req.ProductID, []uuid.UUID{own.ID})
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store stock")
		}
		if levels[own.ID] >= req.Quantity {
			return Result{
				StoreID:   own.ID,
				CompanyID: req.CompanyID,
				Tier:      enums.AllocationTierCompanyOwnStore,
				Key:       inventory.AtStore(own.ID, req.CompanyID, req.ProductID),
				Deduct:    true,
			}, nil
		}
	}

	pool, err := src.PoolStock(ctx, req.CompanyID, req.ProductID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pool stock")
	}
	if pool < req.Quantity {
		return Result{}, pkgerrors.InsufficientStock(req.ProductName)
	}

	// The pool has no store of its own; the sub-order is booked to the own store.
	owner := req.CompanyID
	switch {
	case own != nil:
		owner = own.ID
	case !req.Aggregated:
		return Result{}, pkgerrors.NoFulfillmentSource(req.ProductName)
	}
	return Result{
		StoreID:   owner,
		CompanyID: req.CompanyID,
		Tier:      enums.AllocationTierUnassignedPool,
		Key:       inventory.Pool(req.CompanyID, req.ProductID),
		Deduct:    true,
	}, nil
}

func (r *Resolver) transfer(ctx context.Context, src Source, req Request) (Result, error) {
	own, err := src.CompanyOwnStore(ctx, req.CompanyID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company store")
	}
	if own == nil {
		return Result{}, pkgerrors.NoFulfillmentSource(req.ProductName)
	}
	return Result{
		StoreID:   own.ID,
		CompanyID: req.CompanyID,
		Tier:      enums.AllocationTierTransfer,
		Key:       inventory.AtStore(own.ID, req.CompanyID, req.ProductID),
	}, nil
}

// txSource reads stores and stock through the placement transaction.
type txSource struct {
	stores *stores.Repository
	stock  inventory.Repository
}

// NewSource binds the store and stock repositories to tx.
func NewSource(tx *gorm.DB) Source {
	return &txSource{
		stores: stores.NewRepository(tx),
		stock:  inventory.NewRepository(tx),
	}
}

func (s *txSource) ThirdPartyServing(ctx context.Context, companyID uuid.UUID, postalCode string) ([]models.Store, error) {
	return s.stores.ThirdPartyServing(ctx, companyID, postalCode)
}

func (s *txSource) CompanyOwnStore(ctx context.Context, companyID uuid.UUID) (*models.Store, error) {
	return s.stores.CompanyOwnStore(ctx, companyID)
}

func (s *txSource) StoreStock(ctx context.Context, productID uuid.UUID, storeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.stock.ListStoreStock(ctx, productID, storeIDs)
}

func (s *txSource) PoolStock(ctx context.Context, companyID, productID uuid.UUID) (int, error) {
	row, err := s.stock.FindStock(ctx, inventory.Pool(companyID, productID))
	if err != nil || row == nil {
		return 0, err
	}
	return row.StockLevel, nil
}
