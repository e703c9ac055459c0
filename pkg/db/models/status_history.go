package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// The history tables are append-only. Rows are inserted inside the same
// transaction as the transition they record and are never updated.

type OrderStatusHistory struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null"`
	FromStatus  *string         `gorm:"column:from_status"`
	ToStatus    string          `gorm:"column:to_status;not null"`
	ChangedBy   uuid.UUID       `gorm:"column:changed_by;type:uuid;not null"`
	ActorRole   enums.ActorRole `gorm:"column:actor_role;type:actor_role;not null"`
	Note        *string         `gorm:"column:note"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }

type CancelOrderStatusHistory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CancelOrderID uuid.UUID       `gorm:"column:cancel_order_id;type:uuid;not null"`
	OrderItemID   uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null"`
	FromStatus    *string         `gorm:"column:from_status"`
	ToStatus      string          `gorm:"column:to_status;not null"`
	ChangedBy     uuid.UUID       `gorm:"column:changed_by;type:uuid;not null"`
	ActorRole     enums.ActorRole `gorm:"column:actor_role;type:actor_role;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (CancelOrderStatusHistory) TableName() string { return "cancel_order_status_history" }

type ReturnOrderStatusHistory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnOrderID uuid.UUID       `gorm:"column:return_order_id;type:uuid;not null"`
	OrderItemID   uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null"`
	FromStatus    *string         `gorm:"column:from_status"`
	ToStatus      string          `gorm:"column:to_status;not null"`
	ChangedBy     uuid.UUID       `gorm:"column:changed_by;type:uuid;not null"`
	ActorRole     enums.ActorRole `gorm:"column:actor_role;type:actor_role;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ReturnOrderStatusHistory) TableName() string { return "return_order_status_history" }

// AggregatedOrderStatusHistory records transitions of every machine of an
// aggregated sub-order; Machine and OrderState say which one moved.
type AggregatedOrderStatusHistory struct {
	ID                    uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AggregatedOrderItemID uuid.UUID                  `gorm:"column:aggregated_order_item_id;type:uuid;not null"`
	Machine               enums.Flow                 `gorm:"column:machine;type:flow;not null"`
	OrderState            enums.AggregatedOrderState `gorm:"column:order_state;type:aggregated_order_state;not null"`
	FromStatus            *string                    `gorm:"column:from_status"`
	ToStatus              string                     `gorm:"column:to_status;not null"`
	ChangedBy             uuid.UUID                  `gorm:"column:changed_by;type:uuid;not null"`
	ActorRole             enums.ActorRole            `gorm:"column:actor_role;type:actor_role;not null"`
	CreatedAt             time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (AggregatedOrderStatusHistory) TableName() string { return "aggregated_order_status_history" }
