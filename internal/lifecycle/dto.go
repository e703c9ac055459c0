package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// ChangeRequest asks for one transition of one sub-order. Kind is fixed by the
// route the request arrived on.
type ChangeRequest struct {
	Kind       enums.OrderKind
	SubOrderID uuid.UUID
	Target     string
	Payload    Payload
}

// Payload carries the fields a target needs. Which ones are read depends on
// the target: dispatch fields for ready_to_dispatch, pickup fields for
// pick_up, settlement fields for refunded, line and quantity for opening a
// cancel or return.
type Payload struct {
	// Flow picks the machine of a simple sub-order; empty means processing.
	Flow      enums.Flow `json:"flow,omitempty" validate:"omitempty,enum"`
	LineID    *uuid.UUID `json:"lineId,omitempty"`
	RequestID *uuid.UUID `json:"requestId,omitempty"`
	Quantity  int        `json:"quantity,omitempty" validate:"gte=0"`
	Reason    *string    `json:"reason,omitempty"`

	ShipDate         *time.Time             `json:"shipDate,omitempty"`
	TrackID          *string                `json:"trackId,omitempty"`
	CourierCompanyID *string                `json:"courierCompanyId,omitempty"`
	Note             *string                `json:"note,omitempty"`
	WarrantyCodes    map[uuid.UUID][]string `json:"warrantyCodes,omitempty"`

	PickUpDate             *time.Time `json:"pickUpDate,omitempty"`
	PickUpTime             *string    `json:"pickUpTime,omitempty"`
	PickUpCourierCompanyID *string    `json:"pickUpCourierCompanyId,omitempty"`
	PickUpTrackID          *string    `json:"pickUpTrackId,omitempty"`

	TransactionID  *string             `json:"transactionId,omitempty"`
	RefundAmount   decimal.NullDecimal `json:"refundAmount" validate:"omitempty,gte=0"`
	CourierAmount  decimal.NullDecimal `json:"courierAmount" validate:"omitempty,gte=0"`
	OtherAmount    decimal.NullDecimal `json:"otherAmount" validate:"omitempty,gte=0"`
	HandlingAmount decimal.NullDecimal `json:"handlingAmount" validate:"omitempty,gte=0"`
	RefundComment  *string             `json:"refundComment,omitempty"`
}

// UpdatedState is the sub-order as left by a successful transition.
type UpdatedState struct {
	Kind           enums.OrderKind             `json:"kind"`
	SubOrderID     uuid.UUID                   `json:"subOrderId"`
	Machine        enums.Flow                  `json:"machine"`
	From           string                      `json:"from,omitempty"`
	To             string                      `json:"to"`
	OrderStatus    enums.OrderStatus           `json:"orderStatus"`
	OrderState     *enums.AggregatedOrderState `json:"orderState,omitempty"`
	CancelStatus   *enums.CancelStatus         `json:"cancelStatus,omitempty"`
	ReturnStatus   *enums.ReturnStatus         `json:"returnStatus,omitempty"`
	ReturnQuantity int                         `json:"returnQuantity,omitempty"`
	RequestID      *uuid.UUID                  `json:"requestId,omitempty"`
	LineID         *uuid.UUID                  `json:"lineId,omitempty"`
}

// HistoryEntry is one audit row of any machine.
type HistoryEntry struct {
	Machine    enums.Flow                  `json:"machine"`
	RequestID  *uuid.UUID                  `json:"requestId,omitempty"`
	OrderState *enums.AggregatedOrderState `json:"orderState,omitempty"`
	From       *string                     `json:"from,omitempty"`
	To         string                      `json:"to"`
	ChangedBy  uuid.UUID                   `json:"changedBy"`
	ActorRole  enums.ActorRole             `json:"actorRole"`
	Note       *string                     `json:"note,omitempty"`
	CreatedAt  time.Time                   `json:"createdAt"`
}
