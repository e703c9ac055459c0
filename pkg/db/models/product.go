package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the sellable catalog entry. StockLevel is the company-wide total.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID       uuid.UUID       `gorm:"column:company_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	MRP             decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	GST             decimal.Decimal `gorm:"column:gst;type:numeric(5,2);not null;default:0"`
	Discount        decimal.Decimal `gorm:"column:discount;type:numeric(5,2);not null;default:0"`
	HandlingCharges decimal.Decimal `gorm:"column:handling_charges;type:numeric(12,2);not null;default:0"`
	ShippingCharges decimal.Decimal `gorm:"column:shipping_charges;type:numeric(12,2);not null;default:0"`
	OtherCharges    decimal.Decimal `gorm:"column:other_charges;type:numeric(12,2);not null;default:0"`
	StockLevel      int             `gorm:"column:stock_level;not null;default:0"`
	ReturnOption    bool            `gorm:"column:return_option;not null;default:false"`
	ReturnDays      int             `gorm:"column:return_days;not null;default:0"`
	WarrantyYears   int             `gorm:"column:warranty_years;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
