package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/dbtest"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

func validSnapshot() types.AddressSnapshot {
	return types.AddressSnapshot{
		Name:       "Asha",
		Phone:      "+91 98450 00000",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560 001",
		Country:    "IN",
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()
	owner := uuid.New()

	line2 := "Floor 3"
	saved := models.SavedAddress{
		ID:         uuid.New(),
		OwnerID:    owner,
		Name:       "Asha",
		Phone:      "123",
		Line1:      "12 MG Road",
		Line2:      &line2,
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "IN",
	}
	dbtest.Create(t, db, &saved)

	snap, err := svc.ResolveDeliveryAddress(ctx, owner, saved.ID)
	require.NoError(t, err)
	delivery, err := svc.Snapshot(ctx, db, owner, snap)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.SavedAddress{}).
		Where("id = ?", saved.ID).
		Update("line1", "99 New Street").Error)

	var stored models.DeliveryAddress
	require.NoError(t, db.First(&stored, "id = ?", delivery.ID).Error)
	require.Equal(t, "12 MG Road", stored.Line1)
	require.NotNil(t, stored.Line2)
	require.Equal(t, "Floor 3", *stored.Line2)
}

func TestResolveDeliveryAddressScopesToOwner(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	saved := models.SavedAddress{
		ID:   uuid.New(), OwnerID: uuid.New(), Name: "n", Phone: "p", Line1: "l",
		City: "c", State: "s", PostalCode: "1", Country: "IN",
	}
	dbtest.Create(t, db, &saved)

	_, err = svc.ResolveDeliveryAddress(context.Background(), uuid.New(), saved.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSnapshotNormalizesPostalCode(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	row, err := svc.Snapshot(context.Background(), db, uuid.New(), validSnapshot())
	require.NoError(t, err)
	require.Equal(t, "560001", row.PostalCode)
}

func TestSnapshotRejectsIncompleteAddress(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	addr := validSnapshot()
	addr.City = " "

	_, err = svc.Snapshot(context.Background(), db, uuid.New(), addr)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, db.Model(&models.DeliveryAddress{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}
