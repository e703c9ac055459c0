package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
)

// Repository exposes persistence operations for cart items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByActor returns the actor's cart, oldest first.
func (r *Repository) ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveProducts drains the purchased products from the actor's cart. Other
// cart items are left alone.
func (r *Repository) RemoveProducts(ctx context.Context, actorID uuid.UUID, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("actor_id = ? AND product_id IN ?", actorID, productIDs).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
