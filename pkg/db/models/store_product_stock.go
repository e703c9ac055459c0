package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreProductStock holds stock for one product at one store. A nil StoreID is
// the company's unassigned pool.
type StoreProductStock struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    *uuid.UUID `gorm:"column:store_id;type:uuid"`
	CompanyID  uuid.UUID  `gorm:"column:company_id;type:uuid;not null"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	StockLevel int        `gorm:"column:stock_level;not null;default:0"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
