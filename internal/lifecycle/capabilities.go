package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

type capability struct {
	machine enums.Flow
	target  string
}

var (
	openCancel = capability{enums.FlowProcessing, string(enums.OrderStatusCancelled)}
	openReturn = capability{enums.FlowProcessing, string(enums.OrderStatusReturn)}
)

var placerCapabilities = []capability{openCancel, openReturn}

var fulfillerCapabilities = []capability{
	{enums.FlowProcessing, string(enums.OrderStatusAccepted)},
	{enums.FlowProcessing, string(enums.OrderStatusRejected)},
	{enums.FlowProcessing, string(enums.OrderStatusReadyToDispatch)},
	{enums.FlowProcessing, string(enums.OrderStatusInTransit)},
	{enums.FlowProcessing, string(enums.OrderStatusCompleted)},
	{enums.FlowCancel, string(enums.CancelStatusAccepted)},
	{enums.FlowCancel, string(enums.CancelStatusRejected)},
	{enums.FlowCancel, string(enums.CancelStatusRefunded)},
	{enums.FlowReturn, string(enums.ReturnStatusAccepted)},
	{enums.FlowReturn, string(enums.ReturnStatusRejected)},
	{enums.FlowReturn, string(enums.ReturnStatusPickUp)},
	{enums.FlowReturn, string(enums.ReturnStatusReceived)},
	{enums.FlowReturn, string(enums.ReturnStatusRefunded)},
}

// capabilities maps each role to the transitions it may request. Stores both
// fulfil orders and place aggregated ones, so they carry both sets.
var capabilities = map[enums.ActorRole]map[capability]bool{
	enums.ActorRoleCustomer:    set(placerCapabilities),
	enums.ActorRoleDistributor: set(placerCapabilities),
	enums.ActorRoleStore:       set(placerCapabilities, fulfillerCapabilities),
	enums.ActorRoleCompany:     set(fulfillerCapabilities),
	enums.ActorRoleAdmin:       set(placerCapabilities, fulfillerCapabilities),
}

func set(groups ...[]capability) map[capability]bool {
	out := map[capability]bool{}
	for _, group := range groups {
		for _, c := range group {
			out[c] = true
		}
	}
	return out
}

// Allowed reports whether role may move machine to target at all, before any
// ownership check.
func Allowed(role enums.ActorRole, machine enums.Flow, target string) bool {
	return capabilities[role][capability{machine, target}]
}

// ownership names who placed a sub-order and who fulfils it.
type ownership struct {
	placedBy  uuid.UUID
	storeID   uuid.UUID
	companyID uuid.UUID
}

func (o ownership) isPlacer(actor types.Actor) bool {
	return actor.ID == o.placedBy
}

func (o ownership) isFulfiller(actor types.Actor) bool {
	switch actor.Role {
	case enums.ActorRoleStore:
		return actor.ID == o.storeID
	case enums.ActorRoleCompany:
		return actor.BelongsTo(o.companyID)
	}
	return false
}

// authorize checks the capability table, then that the actor sits on the right
// side of the sub-order: the placer opens requests, the fulfiller does the rest.
func authorize(actor types.Actor, machine enums.Flow, target string, own ownership) error {
	if !Allowed(actor.Role, machine, target) {
		return pkgerrors.ActorNotAuthorized(fmt.Sprintf("%s may not move %s to %s", actor.Role, machine, target))
	}
	if actor.IsAdmin() {
		return nil
	}
	c := capability{machine, target}
	if c == openCancel || c == openReturn {
		if !own.isPlacer(actor) {
			return pkgerrors.ActorNotAuthorized("only the placing actor may open a request")
		}
		return nil
	}
	if !own.isFulfiller(actor) {
		return pkgerrors.ActorNotAuthorized("sub-order is not fulfilled by actor")
	}
	return nil
}

func canView(actor types.Actor, own ownership) bool {
	return actor.IsAdmin() || own.isPlacer(actor) || own.isFulfiller(actor)
}
