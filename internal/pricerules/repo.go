package pricerules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
)

// Repository reads the tiered discount assigned to an actor.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByActor returns the actor's rule, or nil when none is assigned.
func (r *Repository) FindByActor(ctx context.Context, actorID uuid.UUID) (*models.PriceRule, error) {
	var rule models.PriceRule
	err := r.db.WithContext(ctx).Where("actor_id = ?", actorID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}
