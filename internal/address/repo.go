package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
)

// Repository persists saved addresses and checkout snapshots.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindSaved loads a saved address owned by ownerID.
func (r *Repository) FindSaved(ctx context.Context, ownerID, id uuid.UUID) (*models.SavedAddress, error) {
	var saved models.SavedAddress
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// CreateDelivery writes the immutable delivery snapshot.
func (r *Repository) CreateDelivery(ctx context.Context, addr *models.DeliveryAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}
