package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/pagination"
)

// Repository defines persistence operations for order placement and the
// sub-order listing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	CreateOrderProducts(ctx context.Context, lines []models.OrderProduct) error
	CreateAggregatedOrder(ctx context.Context, order *models.AggregatedOrder) error
	CreateAggregatedOrderItem(ctx context.Context, item *models.AggregatedOrderItem) error
	CreateAggregatedOrderProducts(ctx context.Context, lines []models.AggregatedOrderProduct) error
	AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error
	AppendAggregatedHistory(ctx context.Context, row *models.AggregatedOrderStatusHistory) error
	ListOrderItems(ctx context.Context, scope ListScope, params pagination.Params) ([]models.OrderItem, error)
	ListAggregatedOrderItems(ctx context.Context, scope ListScope, params pagination.Params) ([]models.AggregatedOrderItem, error)
}
