package errors

import (
	"fmt"
	"time"
)

// ProductNotFound reports a checkout line referencing an unknown product.
func ProductNotFound(productID string) *Error {
	return New(CodeProductNotFound, "product not found").
		WithDetails(map[string]any{"product_id": productID})
}

// InsufficientStock reports that no stock row could cover the requested quantity.
func InsufficientStock(productName string) *Error {
	return New(CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", productName)).
		WithDetails(map[string]any{"product_name": productName})
}

func NoFulfillmentSource(productName string) *Error {
	return New(CodeNoFulfillmentSource, fmt.Sprintf("no fulfillment source for %s", productName)).
		WithDetails(map[string]any{"product_name": productName})
}

// InvalidTransition reports a transition missing from the machine's table.
func InvalidTransition(machine, from, to string) *Error {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"machine": machine, "from": from, "to": to})
}

func DuplicateRequest(kind string) *Error {
	return New(CodeDuplicateRequest, fmt.Sprintf("an open %s request already exists for this line", kind)).
		WithDetails(map[string]any{"request": kind})
}

// ReturnWindowExpired carries the deadline that has passed. A nil deadline means
// the line was never returnable.
func ReturnWindowExpired(deadline *time.Time) *Error {
	details := map[string]any{}
	if deadline != nil {
		details["deadline"] = deadline.UTC().Format(time.RFC3339)
	}
	return New(CodeReturnWindowExpired, "return window expired").WithDetails(details)
}

func InsufficientReturnQuantity(requested, remaining int) *Error {
	return New(CodeInsufficientReturnQty, fmt.Sprintf("requested %d but only %d can be returned", requested, remaining)).
		WithDetails(map[string]any{"requested": requested, "remaining": remaining})
}

func MissingWarrantyCodes(lines []string) *Error {
	return New(CodeMissingWarrantyCodes, "each warranty unit requires exactly one code").
		WithDetails(map[string]any{"lines": lines})
}

func OrderNotFound() *Error {
	return New(CodeOrderNotFound, "order not found")
}

func ActorNotAuthorized(reason string) *Error {
	return New(CodeActorNotAuthorized, reason)
}
