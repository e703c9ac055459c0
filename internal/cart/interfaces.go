package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
)

// CartRepository defines the cart persistence surface checkout relies on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.CartItem, error)
	RemoveProducts(ctx context.Context, actorID uuid.UUID, productIDs []uuid.UUID) (int64, error)
}
