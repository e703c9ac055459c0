package lifecycle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

func TestProcessingTable(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		ok       bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusAccepted, true},
		{enums.OrderStatusPending, enums.OrderStatusRejected, true},
		{enums.OrderStatusPending, enums.OrderStatusCompleted, false},
		{enums.OrderStatusAccepted, enums.OrderStatusReadyToDispatch, true},
		{enums.OrderStatusReadyToDispatch, enums.OrderStatusInTransit, true},
		{enums.OrderStatusInTransit, enums.OrderStatusCompleted, true},
		{enums.OrderStatusInTransit, enums.OrderStatusAccepted, false},
		{enums.OrderStatusCompleted, enums.OrderStatusReturn, true},
		{enums.OrderStatusCompleted, enums.OrderStatusCancelled, false},
		{enums.OrderStatusRejected, enums.OrderStatusAccepted, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, CanProcess(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCancelAndReturnTables(t *testing.T) {
	require.True(t, CanCancel(enums.CancelStatusPending, enums.CancelStatusRejected))
	require.True(t, CanCancel(enums.CancelStatusAccepted, enums.CancelStatusRefunded))
	require.False(t, CanCancel(enums.CancelStatusPending, enums.CancelStatusRefunded))
	require.False(t, CanCancel(enums.CancelStatusRefunded, enums.CancelStatusPending))

	require.True(t, CanReturn(enums.ReturnStatusAccepted, enums.ReturnStatusPickUp))
	require.True(t, CanReturn(enums.ReturnStatusReceived, enums.ReturnStatusRefunded))
	require.False(t, CanReturn(enums.ReturnStatusAccepted, enums.ReturnStatusRefunded))
	require.False(t, CanReturn(enums.ReturnStatusRejected, enums.ReturnStatusAccepted))
}

func TestTargetParsing(t *testing.T) {
	_, err := processingTarget(enums.OrderStatusPending, "teleported")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))

	to, err := cancelTarget(enums.CancelStatusPending, "accepted")
	require.NoError(t, err)
	require.Equal(t, enums.CancelStatusAccepted, to)

	_, err = returnTarget(enums.ReturnStatusPending, "pick_up")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestCapabilities(t *testing.T) {
	require.True(t, Allowed(enums.ActorRoleCustomer, enums.FlowProcessing, "cancelled"))
	require.False(t, Allowed(enums.ActorRoleCustomer, enums.FlowProcessing, "accepted"))
	require.False(t, Allowed(enums.ActorRoleCompany, enums.FlowProcessing, "return"))
	require.True(t, Allowed(enums.ActorRoleStore, enums.FlowReturn, "refunded"))
	require.True(t, Allowed(enums.ActorRoleStore, enums.FlowProcessing, "cancelled"))
	require.False(t, Allowed(enums.ActorRoleDistributor, enums.FlowCancel, "accepted"))
}

func TestAuthorizeChecksOwnership(t *testing.T) {
	companyID := uuid.New()
	own := ownership{placedBy: uuid.New(), storeID: uuid.New(), companyID: companyID}

	placer := types.Actor{ID: own.placedBy, Role: enums.ActorRoleCustomer}
	require.NoError(t, authorize(placer, enums.FlowProcessing, "cancelled", own))

	fulfiller := types.Actor{ID: own.storeID, Role: enums.ActorRoleStore}
	require.NoError(t, authorize(fulfiller, enums.FlowReturn, "accepted", own))
	err := authorize(fulfiller, enums.FlowProcessing, "cancelled", own)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeActorNotAuthorized))

	company := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCompany, CompanyID: &companyID}
	require.NoError(t, authorize(company, enums.FlowCancel, "refunded", own))

	admin := types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}
	require.NoError(t, authorize(admin, enums.FlowProcessing, "accepted", own))
	require.True(t, canView(admin, own))
	require.False(t, canView(types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}, own))
}

func TestStateRoundTrip(t *testing.T) {
	lineID := uuid.New()
	states := []AggregatedState{
		Processing{OrderStatus: enums.OrderStatusInTransit},
		Cancelled{CancelStatus: enums.CancelStatusAccepted},
		Returning{ReturnStatus: enums.ReturnStatusPickUp, Quantity: 4},
		PartialReturn{ReturnStatus: enums.ReturnStatusPending, Quantity: 1},
	}
	for _, state := range states {
		item := models.AggregatedOrderItem{ID: uuid.New(), OrderStatus: enums.OrderStatusCompleted, ReturnLineID: &lineID}
		applyState(&item, state)
		got, err := StateOf(item)
		require.NoError(t, err)
		require.Equal(t, state, got)
	}
}

func TestStateOfRejectsInconsistentRows(t *testing.T) {
	for name, item := range map[string]models.AggregatedOrderItem{
		"cancel without status": {OrderState: enums.AggregatedOrderStateCancelled},
		"return without line":   {OrderState: enums.AggregatedOrderStateReturn, ReturnStatus: new(enums.ReturnStatus)},
		"unknown state":         {OrderState: "limbo"},
	} {
		_, err := StateOf(item)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), name)
	}
}

func TestWithReturnStatusKeepsShape(t *testing.T) {
	next := withReturnStatus(PartialReturn{ReturnStatus: enums.ReturnStatusPending, Quantity: 2}, enums.ReturnStatusAccepted)
	require.Equal(t, PartialReturn{ReturnStatus: enums.ReturnStatusAccepted, Quantity: 2}, next)
	require.Equal(t, enums.AggregatedOrderStateProcessingReturn, next.OrderState())
}
