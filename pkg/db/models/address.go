package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedAddress is an address book entry owned by an actor. Orders never point at
// it directly; checkout copies it into a DeliveryAddress.
type SavedAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryAddress is the immutable snapshot written at checkout.
type DeliveryAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
