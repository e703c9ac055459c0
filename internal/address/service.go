package address

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

type Service interface {
	// ResolveDeliveryAddress turns a saved address into a snapshot.
	ResolveDeliveryAddress(ctx context.Context, ownerID, addressID uuid.UUID) (types.AddressSnapshot, error)
	// Snapshot persists the snapshot inside the checkout transaction.
	Snapshot(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, addr types.AddressSnapshot) (*models.DeliveryAddress, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ResolveDeliveryAddress(ctx context.Context, ownerID, addressID uuid.UUID) (types.AddressSnapshot, error) {
	saved, err := s.repo.FindSaved(ctx, ownerID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "saved address not found")
		}
		return types.AddressSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load saved address")
	}
	return types.AddressSnapshot{
		Name:       saved.Name,
		Phone:      saved.Phone,
		Line1:      saved.Line1,
		Line2:      copyString(saved.Line2),
		City:       saved.City,
		State:      saved.State,
		PostalCode: saved.PostalCode,
		Country:    saved.Country,
	}, nil
}

func (s *service) Snapshot(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, addr types.AddressSnapshot) (*models.DeliveryAddress, error) {
	if err := validate(addr); err != nil {
		return nil, err
	}
	row := &models.DeliveryAddress{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(addr.Name),
		Phone:      strings.TrimSpace(addr.Phone),
		Line1:      strings.TrimSpace(addr.Line1),
		Line2:      copyString(addr.Line2),
		City:       strings.TrimSpace(addr.City),
		State:      strings.TrimSpace(addr.State),
		PostalCode: addr.Pincode(),
		Country:    strings.TrimSpace(addr.Country),
	}
	if err := s.repo.WithTx(tx).CreateDelivery(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist delivery address")
	}
	return row, nil
}

func validate(addr types.AddressSnapshot) error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":       addr.Name,
		"phone":      addr.Phone,
		"line1":      addr.Line1,
		"city":       addr.City,
		"state":      addr.State,
		"postalCode": addr.PostalCode,
		"country":    addr.Country,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
