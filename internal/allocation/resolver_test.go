package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

type stubSource struct {
	thirdParty []models.Store
	own        *models.Store
	levels     map[uuid.UUID]int
	pool       int
	err        error
}

func (s *stubSource) ThirdPartyServing(ctx context.Context, companyID uuid.UUID, postalCode string) ([]models.Store, error) {
	return s.thirdParty, s.err
}

func (s *stubSource) CompanyOwnStore(ctx context.Context, companyID uuid.UUID) (*models.Store, error) {
	return s.own, nil
}

func (s *stubSource) StoreStock(ctx context.Context, productID uuid.UUID, storeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for _, id := range storeIDs {
		if level, ok := s.levels[id]; ok {
			out[id] = level
		}
	}
	return out, nil
}

func (s *stubSource) PoolStock(ctx context.Context, companyID, productID uuid.UUID) (int, error) {
	return s.pool, nil
}

func baseRequest(role enums.ActorRole, aggregated bool, qty int) Request {
	return Request{
		ProductID:   uuid.New(),
		ProductName: "Inverter",
		CompanyID:   uuid.New(),
		Quantity:    qty,
		Pincode:     "560001",
		Role:        role,
		Aggregated:  aggregated,
	}
}

func TestResolvePrefersThirdPartyWithStock(t *testing.T) {
	short := models.Store{ID: uuid.New()}
	enough := models.Store{ID: uuid.New()}
	own := models.Store{ID: uuid.New()}
	src := &stubSource{
		thirdParty: []models.Store{short, enough},
		own:        &own,
		levels:     map[uuid.UUID]int{short.ID: 1, enough.ID: 5, own.ID: 50},
		pool:       100,
	}
	req := baseRequest(enums.ActorRoleCustomer, false, 3)

	got, err := NewResolver().Resolve(context.Background(), src, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StoreID != enough.ID || got.Tier != enums.AllocationTierThirdPartyStore {
		t.Fatalf("expected third party %s, got %+v", enough.ID, got)
	}
	if !got.Deduct || got.Key.StoreID == nil || *got.Key.StoreID != enough.ID {
		t.Fatalf("expected decrement keyed on the matched store, got %+v", got.Key)
	}
}

func TestResolveFallsBackToOwnStore(t *testing.T) {
	tp := models.Store{ID: uuid.New()}
	own := models.Store{ID: uuid.New()}
	src := &stubSource{
		thirdParty: []models.Store{tp},
		own:        &own,
		levels:     map[uuid.UUID]int{tp.ID: 2, own.ID: 3},
	}

	got, err := NewResolver().Resolve(context.Background(), src, baseRequest(enums.ActorRoleCustomer, false, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StoreID != own.ID || got.Tier != enums.AllocationTierCompanyOwnStore {
		t.Fatalf("expected own store, got %+v", got)
	}
}

func TestResolvePoolBookedToOwnStore(t *testing.T) {
	own := models.Store{ID: uuid.New()}
	src := &stubSource{own: &own, levels: map[uuid.UUID]int{own.ID: 1}, pool: 4}
	req := baseRequest(enums.ActorRoleCustomer, false, 4)

	got, err := NewResolver().Resolve(context.Background(), src, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StoreID != own.ID || got.Tier != enums.AllocationTierUnassignedPool {
		t.Fatalf("expected pool booked to own store, got %+v", got)
	}
	if got.Key.StoreID != nil {
		t.Fatalf("expected pool key, got store %s", got.Key.StoreID)
	}
}

func TestResolvePoolWithoutOwnStore(t *testing.T) {
	src := &stubSource{pool: 10}

	_, err := NewResolver().Resolve(context.Background(), src, baseRequest(enums.ActorRoleCustomer, false, 2))
	if !pkgerrors.HasCode(err, pkgerrors.CodeNoFulfillmentSource) {
		t.Fatalf("expected no fulfillment source, got %v", err)
	}

	req := baseRequest(enums.ActorRoleDistributor, true, 2)
	got, err := NewResolver().Resolve(context.Background(), src, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StoreID != req.CompanyID {
		t.Fatalf("expected aggregated pool line booked to company, got %s", got.StoreID)
	}
}

func TestResolveInsufficientEverywhere(t *testing.T) {
	own := models.Store{ID: uuid.New()}
	src := &stubSource{own: &own, levels: map[uuid.UUID]int{own.ID: 1}, pool: 1}

	_, err := NewResolver().Resolve(context.Background(), src, baseRequest(enums.ActorRoleDistributor, true, 2))
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestResolveStoreActorTransfer(t *testing.T) {
	own := models.Store{ID: uuid.New()}
	src := &stubSource{own: &own}

	got, err := NewResolver().Resolve(context.Background(), src, baseRequest(enums.ActorRoleStore, true, 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Deduct || got.Tier != enums.AllocationTierTransfer || got.StoreID != own.ID {
		t.Fatalf("expected non-deducting transfer to own store, got %+v", got)
	}

	_, err = NewResolver().Resolve(context.Background(), &stubSource{}, baseRequest(enums.ActorRoleStore, true, 1))
	if !pkgerrors.HasCode(err, pkgerrors.CodeNoFulfillmentSource) {
		t.Fatalf("expected no fulfillment source, got %v", err)
	}
}

func TestResolveWrapsSourceErrors(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}

	_, err := NewResolver().Resolve(context.Background(), src, baseRequest(enums.ActorRoleCustomer, false, 1))
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestResolveRejectsNonPositiveQuantity(t *testing.T) {
	_, err := NewResolver().Resolve(context.Background(), &stubSource{}, baseRequest(enums.ActorRoleCustomer, false, 0))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
