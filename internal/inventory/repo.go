package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
)

// StockKey identifies one stock row. A nil StoreID names the company's
// unassigned pool.
type StockKey struct {
	StoreID   *uuid.UUID
	CompanyID uuid.UUID
	ProductID uuid.UUID
}

// Pool returns the key of the company's unassigned pool for the product.
func Pool(companyID, productID uuid.UUID) StockKey {
	return StockKey{CompanyID: companyID, ProductID: productID}
}

// AtStore returns the key of a store's stock row for the product.
func AtStore(storeID, companyID, productID uuid.UUID) StockKey {
	id := storeID
	return StockKey{StoreID: &id, CompanyID: companyID, ProductID: productID}
}

func (k StockKey) scope(db *gorm.DB) *gorm.DB {
	db = db.Where("company_id = ? AND product_id = ?", k.CompanyID, k.ProductID)
	if k.StoreID == nil {
		return db.Where("store_id IS NULL")
	}
	return db.Where("store_id = ?", *k.StoreID)
}

// Repository performs the conditional stock updates. Every method reports how
// many rows matched so callers can tell a short row from a missing one.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DecrementProduct(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	IncrementProduct(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	DecrementStock(ctx context.Context, key StockKey, qty int) (bool, error)
	IncrementStock(ctx context.Context, key StockKey, qty int) (bool, error)
	CreateStock(ctx context.Context, key StockKey, qty int) error
	FindStock(ctx context.Context, key StockKey) (*models.StoreProductStock, error)
	ListStoreStock(ctx context.Context, productID uuid.UUID, storeIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) DecrementProduct(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_level >= ?", productID, qty).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level - ?", qty),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementProduct(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level + ?", qty),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DecrementStock(ctx context.Context, key StockKey, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreProductStock{}).
		Scopes(key.scope).
		Where("stock_level >= ?", qty).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level - ?", qty),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementStock(ctx context.Context, key StockKey, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreProductStock{}).
		Scopes(key.scope).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level + ?", qty),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateStock(ctx context.Context, key StockKey, qty int) error {
	row := &models.StoreProductStock{
		ID:         uuid.New(),
		StoreID:    key.StoreID,
		CompanyID:  key.CompanyID,
		ProductID:  key.ProductID,
		StockLevel: qty,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindStock(ctx context.Context, key StockKey) (*models.StoreProductStock, error) {
	var row models.StoreProductStock
	err := r.db.WithContext(ctx).Scopes(key.scope).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListStoreStock returns the stock level per store for the given stores. Stores
// without a row are absent from the map.
func (r *repository) ListStoreStock(ctx context.Context, productID uuid.UUID, storeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	levels := make(map[uuid.UUID]int, len(storeIDs))
	if len(storeIDs) == 0 {
		return levels, nil
	}
	var rows []models.StoreProductStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND store_id IN ?", productID, storeIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.StoreID != nil {
			levels[*row.StoreID] = row.StockLevel
		}
	}
	return levels, nil
}
