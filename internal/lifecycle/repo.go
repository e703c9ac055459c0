package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Repository persists sub-order transitions and their audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	FindAggregatedItem(ctx context.Context, id uuid.UUID) (*models.AggregatedOrderItem, error)
	SaveOrderItem(ctx context.Context, item *models.OrderItem, columns ...string) error
	SaveAggregatedItem(ctx context.Context, item *models.AggregatedOrderItem, columns ...string) error
	SaveOrderProduct(ctx context.Context, line *models.OrderProduct, columns ...string) error
	SaveAggregatedProduct(ctx context.Context, line *models.AggregatedOrderProduct, columns ...string) error

	CreateCancel(ctx context.Context, req *models.CancelOrder) error
	FindCancel(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error)
	LatestCancel(ctx context.Context, orderItemID, lineID uuid.UUID) (*models.CancelOrder, error)
	HasOpenCancel(ctx context.Context, orderItemID, lineID uuid.UUID) (bool, error)
	PendingCancels(ctx context.Context, orderItemID uuid.UUID) ([]models.CancelOrder, error)
	SaveCancel(ctx context.Context, req *models.CancelOrder, columns ...string) error

	CreateReturn(ctx context.Context, req *models.ReturnOrder) error
	FindReturn(ctx context.Context, id uuid.UUID) (*models.ReturnOrder, error)
	LatestReturn(ctx context.Context, orderItemID, lineID uuid.UUID) (*models.ReturnOrder, error)
	HasOpenReturn(ctx context.Context, orderItemID, lineID uuid.UUID) (bool, error)
	SaveReturn(ctx context.Context, req *models.ReturnOrder, columns ...string) error

	AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error
	AppendCancelHistory(ctx context.Context, row *models.CancelOrderStatusHistory) error
	AppendReturnHistory(ctx context.Context, row *models.ReturnOrderStatusHistory) error
	AppendAggregatedHistory(ctx context.Context, row *models.AggregatedOrderStatusHistory) error

	OrderHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.OrderStatusHistory, error)
	CancelHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.CancelOrderStatusHistory, error)
	ReturnHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.ReturnOrderStatusHistory, error)
	AggregatedHistory(ctx context.Context, itemID uuid.UUID) ([]models.AggregatedOrderStatusHistory, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// locked takes a row lock on postgres so two transitions of one sub-order
// serialize; sqlite already serializes writers.
func (r *repository) locked(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func (r *repository) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.locked(ctx).
		Preload("Order").
		Preload("Products", orderLines).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindAggregatedItem(ctx context.Context, id uuid.UUID) (*models.AggregatedOrderItem, error) {
	var item models.AggregatedOrderItem
	if err := r.locked(ctx).
		Preload("AggregatedOrder").
		Preload("Products", orderLines).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) save(ctx context.Context, value any, columns []string) error {
	return r.db.WithContext(ctx).
		Model(value).
		Select(columns).
		Omit(clause.Associations).
		Updates(value).Error
}

func (r *repository) SaveOrderItem(ctx context.Context, item *models.OrderItem, columns ...string) error {
	return r.save(ctx, item, columns)
}

func (r *repository) SaveAggregatedItem(ctx context.Context, item *models.AggregatedOrderItem, columns ...string) error {
	return r.save(ctx, item, columns)
}

func (r *repository) SaveOrderProduct(ctx context.Context, line *models.OrderProduct, columns ...string) error {
	return r.save(ctx, line, columns)
}

func (r *repository) SaveAggregatedProduct(ctx context.Context, line *models.AggregatedOrderProduct, columns ...string) error {
	return r.save(ctx, line, columns)
}

func (r *repository) CreateCancel(ctx context.Context, req *models.CancelOrder) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindCancel(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error) {
	var req models.CancelOrder
	if err := r.locked(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) LatestCancel(ctx context.Context, orderItemID, lineID uuid.UUID) (*models.CancelOrder, error) {
	var req models.CancelOrder
	if err := r.locked(ctx).
		Where("order_item_id = ? AND order_product_id = ?", orderItemID, lineID).
		Order("created_at DESC").
		Order("id DESC").
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) HasOpenCancel(ctx context.Context, orderItemID, lineID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CancelOrder{}, orderItemID, lineID, openCancelStatuses())
}

// PendingCancels lists the undecided cancel requests of a sub-order.
func (r *repository) PendingCancels(ctx context.Context, orderItemID uuid.UUID) ([]models.CancelOrder, error) {
	var rows []models.CancelOrder
	err := r.locked(ctx).
		Where("order_item_id = ? AND order_status = ?", orderItemID, string(enums.CancelStatusPending)).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SaveCancel(ctx context.Context, req *models.CancelOrder, columns ...string) error {
	return r.save(ctx, req, columns)
}

func (r *repository) CreateReturn(ctx context.Context, req *models.ReturnOrder) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindReturn(ctx context.Context, id uuid.UUID) (*models.ReturnOrder, error) {
	var req models.ReturnOrder
	if err := r.locked(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) LatestReturn(ctx context.Context, orderItemID, lineID uuid.UUID) (*models.ReturnOrder, error) {
	var req models.ReturnOrder
	if err := r.locked(ctx).
		Where("order_item_id = ? AND order_product_id = ?", orderItemID, lineID).
		Order("created_at DESC").
		Order("id DESC").
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) HasOpenReturn(ctx context.Context, orderItemID, lineID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.ReturnOrder{}, orderItemID, lineID, openReturnStatuses())
}

func (r *repository) SaveReturn(ctx context.Context, req *models.ReturnOrder, columns ...string) error {
	return r.save(ctx, req, columns)
}

func (r *repository) exists(ctx context.Context, model any, orderItemID, lineID uuid.UUID, statuses []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(model).
		Where("order_item_id = ? AND order_product_id = ?", orderItemID, lineID).
		Where("order_status IN ?", statuses).
		Count(&count).Error
	return count > 0, err
}

func openCancelStatuses() []string {
	var out []string
	for _, s := range []enums.CancelStatus{enums.CancelStatusPending, enums.CancelStatusAccepted, enums.CancelStatusRejected, enums.CancelStatusRefunded} {
		if s.IsOpen() {
			out = append(out, string(s))
		}
	}
	return out
}

func openReturnStatuses() []string {
	var out []string
	for _, s := range []enums.ReturnStatus{enums.ReturnStatusPending, enums.ReturnStatusAccepted, enums.ReturnStatusRejected, enums.ReturnStatusPickUp, enums.ReturnStatusReceived, enums.ReturnStatusRefunded} {
		if s.IsOpen() {
			out = append(out, string(s))
		}
	}
	return out
}

func (r *repository) AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) AppendCancelHistory(ctx context.Context, row *models.CancelOrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) AppendReturnHistory(ctx context.Context, row *models.ReturnOrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) AppendAggregatedHistory(ctx context.Context, row *models.AggregatedOrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) OrderHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CancelHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.CancelOrderStatusHistory, error) {
	var rows []models.CancelOrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ReturnHistory(ctx context.Context, orderItemID uuid.UUID) ([]models.ReturnOrderStatusHistory, error) {
	var rows []models.ReturnOrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) AggregatedHistory(ctx context.Context, itemID uuid.UUID) ([]models.AggregatedOrderStatusHistory, error) {
	var rows []models.AggregatedOrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("aggregated_order_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
