package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Order is a customer checkout. It is never mutated after placement.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	IsPaid        bool                `gorm:"column:is_paid;not null;default:false"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one (store, company) sub-order of a customer checkout.
type OrderItem struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	StoreID           uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	CompanyID         uuid.UUID         `gorm:"column:company_id;type:uuid;not null"`
	OrderStatus       enums.OrderStatus `gorm:"column:order_status;type:order_status;not null;default:'pending'"`
	SubTotal          decimal.Decimal   `gorm:"column:sub_total;type:numeric(12,2);not null"`
	DeliveryAddressID uuid.UUID         `gorm:"column:delivery_address_id;type:uuid;not null"`
	Dispatch          `gorm:"embedded"`
	DeliveredAt       *time.Time     `gorm:"column:delivered_at"`
	Order             *Order         `gorm:"foreignKey:OrderID"`
	Products          []OrderProduct `gorm:"foreignKey:OrderItemID"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderProduct is a line of a customer sub-order.
type OrderProduct struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null"`
	Line        `gorm:"embedded"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CancelOrder is the satellite record of a cancel request on one line.
type CancelOrder struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID    uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null"`
	OrderProductID uuid.UUID          `gorm:"column:order_product_id;type:uuid;not null"`
	RequestedBy    uuid.UUID          `gorm:"column:requested_by;type:uuid;not null"`
	Quantity       int                `gorm:"column:quantity;not null"`
	Reason         *string            `gorm:"column:reason"`
	Status         enums.CancelStatus `gorm:"column:order_status;type:cancel_status;not null;default:'pending'"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ReturnOrder is the satellite record of a return request on one line.
type ReturnOrder struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID    uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null"`
	OrderProductID uuid.UUID          `gorm:"column:order_product_id;type:uuid;not null"`
	RequestedBy    uuid.UUID          `gorm:"column:requested_by;type:uuid;not null"`
	Quantity       int                `gorm:"column:quantity;not null"`
	Reason         *string            `gorm:"column:reason"`
	Status         enums.ReturnStatus `gorm:"column:order_status;type:return_status;not null;default:'pending'"`
	Pickup         `gorm:"embedded"`
	Refund         `gorm:"embedded"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
