package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Repository handles store lookups for allocation and read-side scoping.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
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

// FindByID loads a store by its id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ThirdPartyServing returns the company's third-party stores that declare the
// postal code in their service area, oldest first.
func (r *Repository) ThirdPartyServing(ctx context.Context, companyID uuid.UUID, postalCode string) ([]models.Store, error) {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return nil, nil
	}
	var stores []models.Store
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND store_type = ?", companyID, enums.StoreTypeThirdParty).
		Where("id IN (?)", r.db.Model(&models.StoreServiceArea{}).
			Select("store_id").
			Where("UPPER(REPLACE(postal_code, ' ', '')) = ?", code)).
		Order("created_at ASC, id ASC").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

// CompanyOwnStore returns the company's own store, or nil when it has none.
func (r *Repository) CompanyOwnStore(ctx context.Context, companyID uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND store_type = ?", companyID, enums.StoreTypeCompanyOwn).
		Order("created_at ASC, id ASC").
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// CompanyOwnedStoreIDs lists every store id belonging to the company.
func (r *Repository) CompanyOwnedStoreIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// NormalizePostalCode uppercases the code and strips whitespace.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}
