package lifecycle

import (
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

// AggregatedState is the workflow an aggregated sub-order is in together with
// the position inside that workflow. Exactly one of Processing, Cancelled,
// Returning and PartialReturn holds at a time.
type AggregatedState interface {
	OrderState() enums.AggregatedOrderState
	Machine() enums.Flow
	Nested() string
	aggregatedState()
}

type Processing struct {
	OrderStatus enums.OrderStatus
}

type Cancelled struct {
	CancelStatus enums.CancelStatus
}

// Returning covers the whole remaining quantity of the returned line.
type Returning struct {
	ReturnStatus enums.ReturnStatus
	Quantity     int
}

// PartialReturn returns only part of the line; the rest stays delivered.
type PartialReturn struct {
	ReturnStatus enums.ReturnStatus
	Quantity     int
}

func (Processing) OrderState() enums.AggregatedOrderState {
	return enums.AggregatedOrderStateProcessing
}
func (Processing) Machine() enums.Flow { return enums.FlowProcessing }
func (s Processing) Nested() string    { return string(s.OrderStatus) }
func (Processing) aggregatedState()    {}

func (Cancelled) OrderState() enums.AggregatedOrderState {
	return enums.AggregatedOrderStateCancelled
}
func (Cancelled) Machine() enums.Flow { return enums.FlowCancel }
func (s Cancelled) Nested() string    { return string(s.CancelStatus) }
func (Cancelled) aggregatedState()    {}

func (Returning) OrderState() enums.AggregatedOrderState {
	return enums.AggregatedOrderStateReturn
}
func (Returning) Machine() enums.Flow { return enums.FlowReturn }
func (s Returning) Nested() string    { return string(s.ReturnStatus) }
func (Returning) aggregatedState()    {}

func (PartialReturn) OrderState() enums.AggregatedOrderState {
	return enums.AggregatedOrderStateProcessingReturn
}
func (PartialReturn) Machine() enums.Flow { return enums.FlowReturn }
func (s PartialReturn) Nested() string    { return string(s.ReturnStatus) }
func (PartialReturn) aggregatedState()    {}

// StateOf reads the sum type back from the stored row. A row whose columns do
// not describe exactly one state is reported as a state conflict.
func StateOf(item models.AggregatedOrderItem) (AggregatedState, error) {
	switch item.OrderState {
	case enums.AggregatedOrderStateProcessing:
		return Processing{OrderStatus: item.OrderStatus}, nil
	case enums.AggregatedOrderStateCancelled:
		if item.CancelStatus == nil {
			return nil, corruptState(item)
		}
		return Cancelled{CancelStatus: *item.CancelStatus}, nil
	case enums.AggregatedOrderStateReturn:
		if item.ReturnStatus == nil || item.ReturnLineID == nil {
			return nil, corruptState(item)
		}
		return Returning{ReturnStatus: *item.ReturnStatus, Quantity: item.ReturnQuantity}, nil
	case enums.AggregatedOrderStateProcessingReturn:
		if item.ReturnStatus == nil || item.ReturnLineID == nil {
			return nil, corruptState(item)
		}
		return PartialReturn{ReturnStatus: *item.ReturnStatus, Quantity: item.ReturnQuantity}, nil
	default:
		return nil, corruptState(item)
	}
}

// applyState writes the state onto the row and returns the columns it touched.
func applyState(item *models.AggregatedOrderItem, state AggregatedState) []string {
	item.OrderState = state.OrderState()
	columns := []string{"order_state"}
	switch s := state.(type) {
	case Processing:
		item.OrderStatus = s.OrderStatus
		columns = append(columns, "order_status")
	case Cancelled:
		status := s.CancelStatus
		item.CancelStatus = &status
		columns = append(columns, "cancel_status")
	case Returning:
		status := s.ReturnStatus
		item.ReturnStatus = &status
		item.ReturnQuantity = s.Quantity
		columns = append(columns, "return_status", "return_quantity")
	case PartialReturn:
		status := s.ReturnStatus
		item.ReturnStatus = &status
		item.ReturnQuantity = s.Quantity
		columns = append(columns, "return_status", "return_quantity")
	}
	return columns
}

// withReturnStatus keeps the return shape and moves its nested status.
func withReturnStatus(state AggregatedState, status enums.ReturnStatus) AggregatedState {
	switch s := state.(type) {
	case PartialReturn:
		s.ReturnStatus = status
		return s
	case Returning:
		s.ReturnStatus = status
		return s
	}
	return state
}

func returnStatusOf(state AggregatedState) (enums.ReturnStatus, bool) {
	switch s := state.(type) {
	case Returning:
		return s.ReturnStatus, true
	case PartialReturn:
		return s.ReturnStatus, true
	}
	return "", false
}

func corruptState(item models.AggregatedOrderItem) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "aggregated sub-order state is inconsistent").
		WithDetails(map[string]any{"subOrderId": item.ID.String(), "orderState": item.OrderState})
}
