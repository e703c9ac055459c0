package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	products := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		products[row.ID] = row
	}
	return products, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *repository) CreateOrderProducts(ctx context.Context, lines []models.OrderProduct) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) CreateAggregatedOrder(ctx context.Context, order *models.AggregatedOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateAggregatedOrderItem(ctx context.Context, item *models.AggregatedOrderItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *repository) CreateAggregatedOrderProducts(ctx context.Context, lines []models.AggregatedOrderProduct) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) AppendAggregatedHistory(ctx context.Context, row *models.AggregatedOrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListOrderItems(ctx context.Context, scope ListScope, params pagination.Params) ([]models.OrderItem, error) {
	q := r.db.WithContext(ctx).Model(&models.OrderItem{})
	if scope.PlacedBy != nil {
		q = q.Where("order_id IN (?)", r.db.Model(&models.Order{}).
			Select("id").
			Where("customer_id = ?", *scope.PlacedBy))
	}
	var rows []models.OrderItem
	q = applyScope(q, scope, params)
	if err := q.Preload("Products").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAggregatedOrderItems(ctx context.Context, scope ListScope, params pagination.Params) ([]models.AggregatedOrderItem, error) {
	q := r.db.WithContext(ctx).Model(&models.AggregatedOrderItem{})
	if scope.PlacedBy != nil {
		q = q.Where("aggregated_order_id IN (?)", r.db.Model(&models.AggregatedOrder{}).
			Select("id").
			Where("actor_id = ?", *scope.PlacedBy))
	}
	var rows []models.AggregatedOrderItem
	q = applyScope(q, scope, params)
	if err := q.Preload("Products").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyScope adds the store, status and cursor filters shared by both sub-order
// tables. Rows come back newest first with one extra row to detect a next page.
func applyScope(q *gorm.DB, scope ListScope, params pagination.Params) *gorm.DB {
	if scope.StoreIDs != nil {
		if len(scope.StoreIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("store_id IN ?", scope.StoreIDs)
		}
	}
	if scope.Status != nil {
		q = q.Where("order_status = ?", *scope.Status)
	}
	if after := scope.After; after != nil {
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	return q.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit))
}
