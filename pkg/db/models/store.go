package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Store is a fulfillment source. Its ID is the store operator's user id.
type Store struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID    uuid.UUID          `gorm:"column:company_id;type:uuid;not null"`
	Name         string             `gorm:"column:name;not null"`
	Type         enums.StoreType    `gorm:"column:store_type;type:store_type;not null"`
	ServiceAreas []StoreServiceArea `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// StoreServiceArea declares one postal code a store delivers to.
type StoreServiceArea struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
}
