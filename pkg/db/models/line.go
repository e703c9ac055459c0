package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Line is the pricing snapshot and lifecycle state shared by simple and
// aggregated order lines. Amounts are per unit except LineTotal.
type Line struct {
	ProductID         uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string               `gorm:"column:product_name;not null"`
	Quantity          int                  `gorm:"column:quantity;not null"`
	ReturnQuantity    int                  `gorm:"column:return_quantity;not null;default:0"`
	MRP               decimal.Decimal      `gorm:"column:mrp;type:numeric(12,2);not null"`
	BasePrice         decimal.Decimal      `gorm:"column:base_price;type:numeric(12,2);not null"`
	Price             decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	GST               decimal.Decimal      `gorm:"column:gst;type:numeric(5,2);not null"`
	DiscountPercent   decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Discount          decimal.Decimal      `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	HandlingCharges   decimal.Decimal      `gorm:"column:handling_charges;type:numeric(12,2);not null;default:0"`
	ShippingCharges   decimal.Decimal      `gorm:"column:shipping_charges;type:numeric(12,2);not null;default:0"`
	OtherCharges      decimal.Decimal      `gorm:"column:other_charges;type:numeric(12,2);not null;default:0"`
	LineTotal         decimal.Decimal      `gorm:"column:line_total;type:numeric(12,2);not null"`
	Status            enums.LineStatus     `gorm:"column:status;type:line_status;not null;default:'processing'"`
	IsCancel          bool                 `gorm:"column:is_cancel;not null;default:false"`
	ReturnDays        int                  `gorm:"column:return_days;not null;default:0"`
	ReturnDate        *time.Time           `gorm:"column:return_date"`
	WarrantyYears     int                  `gorm:"column:warranty_years;not null;default:0"`
	WarrantyExpiresAt *time.Time           `gorm:"column:warranty_expires_at"`
	WarrantyCodes     []string             `gorm:"column:warranty_codes;type:jsonb;serializer:json"`
	AllocationTier    enums.AllocationTier `gorm:"column:allocation_tier;type:allocation_tier;not null"`
	StockStoreID      *uuid.UUID           `gorm:"column:stock_store_id;type:uuid"`
	StockDeducted     bool                 `gorm:"column:stock_deducted;not null"`
}

// RemainingQuantity is the quantity still neither returned nor cancelled.
func (l Line) RemainingQuantity() int {
	if l.IsCancel {
		return 0
	}
	return l.Quantity - l.ReturnQuantity
}

// Dispatch carries the fields recorded when a sub-order is ready to dispatch.
type Dispatch struct {
	TrackID          *string    `gorm:"column:track_id"`
	ShipDate         *time.Time `gorm:"column:ship_date"`
	CourierCompanyID *string    `gorm:"column:courier_company_id"`
	Note             *string    `gorm:"column:note"`
}

// Pickup carries the courier booking for a return.
type Pickup struct {
	PickUpDate             *time.Time `gorm:"column:pick_up_date"`
	PickUpTime             *string    `gorm:"column:pick_up_time"`
	PickUpCourierCompanyID *string    `gorm:"column:pick_up_courier_company_id"`
	PickUpTrackID          *string    `gorm:"column:pick_up_track_id"`
}

// Refund carries the settlement recorded when a return is refunded.
type Refund struct {
	TransactionID  *string             `gorm:"column:transaction_id"`
	RefundAmount   decimal.NullDecimal `gorm:"column:refund_amount;type:numeric(12,2)"`
	CourierAmount  decimal.NullDecimal `gorm:"column:courier_amount;type:numeric(12,2)"`
	OtherAmount    decimal.NullDecimal `gorm:"column:other_amount;type:numeric(12,2)"`
	HandlingAmount decimal.NullDecimal `gorm:"column:handling_amount;type:numeric(12,2)"`
	RefundComment  *string             `gorm:"column:refund_comment"`
	RefundedAt     *time.Time          `gorm:"column:refunded_at"`
}
