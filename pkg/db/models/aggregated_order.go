package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// AggregatedOrder is a bulk order placed by a distributor or store actor.
type AggregatedOrder struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID       uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole     enums.ActorRole       `gorm:"column:actor_role;type:actor_role;not null"`
	PriceRuleName *string               `gorm:"column:price_rule_name"`
	TotalAmount   decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	IsPaid        bool                  `gorm:"column:is_paid;not null;default:false"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	Items         []AggregatedOrderItem `gorm:"foreignKey:AggregatedOrderID"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// AggregatedOrderItem folds the cancel and return workflows into the sub-order
// row. OrderState names the active workflow; OrderStatus keeps the processing
// status while CancelStatus or ReturnStatus track the nested one.
type AggregatedOrderItem struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AggregatedOrderID uuid.UUID                  `gorm:"column:aggregated_order_id;type:uuid;not null"`
	StoreID           uuid.UUID                  `gorm:"column:store_id;type:uuid;not null"`
	CompanyID         uuid.UUID                  `gorm:"column:company_id;type:uuid;not null"`
	OrderState        enums.AggregatedOrderState `gorm:"column:order_state;type:aggregated_order_state;not null;default:'processing'"`
	OrderStatus       enums.OrderStatus          `gorm:"column:order_status;type:order_status;not null;default:'pending'"`
	CancelStatus      *enums.CancelStatus        `gorm:"column:cancel_status;type:cancel_status"`
	ReturnStatus      *enums.ReturnStatus        `gorm:"column:return_status;type:return_status"`
	ReturnLineID      *uuid.UUID                 `gorm:"column:return_line_id;type:uuid"`
	ReturnQuantity    int                        `gorm:"column:return_quantity;not null;default:0"`
	CancelReason      *string                    `gorm:"column:cancel_reason"`
	ReturnReason      *string                    `gorm:"column:return_reason"`
	SubTotal          decimal.Decimal            `gorm:"column:sub_total;type:numeric(12,2);not null"`
	DeliveryAddressID uuid.UUID                  `gorm:"column:delivery_address_id;type:uuid;not null"`
	Dispatch          `gorm:"embedded"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`
	Pickup            `gorm:"embedded"`
	Refund            `gorm:"embedded"`
	AggregatedOrder   *AggregatedOrder         `gorm:"foreignKey:AggregatedOrderID"`
	Products          []AggregatedOrderProduct `gorm:"foreignKey:AggregatedOrderItemID"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// AggregatedOrderProduct is a line of an aggregated sub-order.
type AggregatedOrderProduct struct {
	ID                    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AggregatedOrderItemID uuid.UUID `gorm:"column:aggregated_order_item_id;type:uuid;not null"`
	Line                  `gorm:"embedded"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
