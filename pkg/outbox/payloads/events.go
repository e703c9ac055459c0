package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// OrderPlacedEvent announces a committed checkout and the sub-orders it split into.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Kind        enums.OrderKind `json:"kind"`
	ActorID     uuid.UUID       `json:"actor_id"`
	ActorRole   enums.ActorRole `json:"actor_role"`
	SubOrderIDs []uuid.UUID     `json:"sub_order_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderStatusChangedEvent is emitted for every committed transition of any machine.
type OrderStatusChangedEvent struct {
	SubOrderID uuid.UUID       `json:"sub_order_id"`
	Kind       enums.OrderKind `json:"kind"`
	Machine    enums.Flow      `json:"machine"`
	RequestID  *uuid.UUID      `json:"request_id,omitempty"`
	LineID     *uuid.UUID      `json:"line_id,omitempty"`
	From       string          `json:"from,omitempty"`
	To         string          `json:"to"`
	ActorID    uuid.UUID       `json:"actor_id"`
	ActorRole  enums.ActorRole `json:"actor_role"`
}

// StockRestoredEvent reports a compensating increment.
type StockRestoredEvent struct {
	ProductID  uuid.UUID  `json:"product_id"`
	CompanyID  uuid.UUID  `json:"company_id"`
	StoreID    *uuid.UUID `json:"store_id,omitempty"`
	Quantity   int        `json:"quantity"`
	Reason     string     `json:"reason"`
	SubOrderID uuid.UUID  `json:"sub_order_id"`
}
