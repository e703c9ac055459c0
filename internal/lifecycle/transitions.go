package lifecycle

import (
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

// processingTransitions drives a sub-order's order_status. Moving to cancelled
// or return opens the matching request instead of ending the sub-order.
var processingTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:         {enums.OrderStatusAccepted, enums.OrderStatusCancelled, enums.OrderStatusRejected},
	enums.OrderStatusAccepted:        {enums.OrderStatusReadyToDispatch, enums.OrderStatusCancelled},
	enums.OrderStatusReadyToDispatch: {enums.OrderStatusInTransit, enums.OrderStatusCancelled},
	enums.OrderStatusInTransit:       {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusCompleted:       {enums.OrderStatusReturn},
}

var cancelTransitions = map[enums.CancelStatus][]enums.CancelStatus{
	enums.CancelStatusPending:  {enums.CancelStatusAccepted, enums.CancelStatusRejected},
	enums.CancelStatusAccepted: {enums.CancelStatusRefunded},
}

var returnTransitions = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusPending:  {enums.ReturnStatusAccepted, enums.ReturnStatusRejected},
	enums.ReturnStatusAccepted: {enums.ReturnStatusPickUp},
	enums.ReturnStatusPickUp:   {enums.ReturnStatusReceived},
	enums.ReturnStatusReceived: {enums.ReturnStatusRefunded},
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanProcess(from, to enums.OrderStatus) bool {
	return allowed(processingTransitions, from, to)
}

func CanCancel(from, to enums.CancelStatus) bool {
	return allowed(cancelTransitions, from, to)
}

func CanReturn(from, to enums.ReturnStatus) bool {
	return allowed(returnTransitions, from, to)
}

// processingTarget parses target and checks it against the processing table.
func processingTarget(from enums.OrderStatus, target string) (enums.OrderStatus, error) {
	to, err := enums.ParseOrderStatus(target)
	if err != nil || !CanProcess(from, to) {
		return "", pkgerrors.InvalidTransition(string(enums.FlowProcessing), string(from), target)
	}
	return to, nil
}

func cancelTarget(from enums.CancelStatus, target string) (enums.CancelStatus, error) {
	to, err := enums.ParseCancelStatus(target)
	if err != nil || !CanCancel(from, to) {
		return "", pkgerrors.InvalidTransition(string(enums.FlowCancel), string(from), target)
	}
	return to, nil
}

func returnTarget(from enums.ReturnStatus, target string) (enums.ReturnStatus, error) {
	to, err := enums.ParseReturnStatus(target)
	if err != nil || !CanReturn(from, to) {
		return "", pkgerrors.InvalidTransition(string(enums.FlowReturn), string(from), target)
	}
	return to, nil
}
