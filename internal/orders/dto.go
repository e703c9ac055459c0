package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	"github.com/angelmondragon/fulfillment-engine/pkg/money"
	"github.com/angelmondragon/fulfillment-engine/pkg/pagination"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

// LineRequest is one product and quantity from the cart.
type LineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderInput carries a customer checkout. Exactly one of Address and
// AddressID is set.
type PlaceOrderInput struct {
	Address       *types.AddressSnapshot `json:"address,omitempty" validate:"required_without=AddressID,excluded_with=AddressID"`
	AddressID     *uuid.UUID             `json:"addressId,omitempty"`
	Lines         []LineRequest          `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod enums.PaymentMethod    `json:"paymentMethod" validate:"required,enum"`
}

// PlaceAggregatedOrderInput carries a distributor or store bulk checkout.
type PlaceAggregatedOrderInput struct {
	Address       *types.AddressSnapshot `json:"address,omitempty" validate:"required_without=AddressID,excluded_with=AddressID"`
	AddressID     *uuid.UUID             `json:"addressId,omitempty"`
	Lines         []LineRequest          `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod enums.PaymentMethod    `json:"paymentMethod" validate:"required,enum"`
	PriceRuleName *string                `json:"priceRuleName,omitempty"`
}

// PlacedLine is a line as persisted at placement.
type PlacedLine struct {
	ID             uuid.UUID            `json:"id"`
	ProductID      uuid.UUID            `json:"productId"`
	ProductName    string               `json:"productName"`
	Quantity       int                  `json:"quantity"`
	Price          decimal.Decimal      `json:"price"`
	Discount       decimal.Decimal      `json:"discount"`
	LineTotal      decimal.Decimal      `json:"lineTotal"`
	AllocationTier enums.AllocationTier `json:"allocationTier"`
}

// SubOrder is one (store, company) split of a placed order.
type SubOrder struct {
	ID        uuid.UUID         `json:"id"`
	StoreID   uuid.UUID         `json:"storeId"`
	CompanyID uuid.UUID         `json:"companyId"`
	Status    enums.OrderStatus `json:"orderStatus"`
	SubTotal  decimal.Decimal   `json:"subTotal"`
	Lines     []PlacedLine      `json:"lines"`
}

// PlacementResult is returned by PlaceOrder and PlaceAggregatedOrder.
type PlacementResult struct {
	OrderID      uuid.UUID       `json:"orderId"`
	Kind         enums.OrderKind `json:"kind"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	DisplayTotal decimal.Decimal `json:"displayTotal"`
	SubOrders    []SubOrder      `json:"subOrders"`
}

// ListFilter narrows the sub-order listing.
type ListFilter struct {
	Kind    enums.OrderKind
	Status  *enums.OrderStatus
	StoreID *uuid.UUID
}

// ListScope is the filter after actor scoping. A non-nil empty StoreIDs matches
// nothing.
type ListScope struct {
	StoreIDs []uuid.UUID
	PlacedBy *uuid.UUID
	Status   *enums.OrderStatus
	After    *pagination.Cursor
}

// SubOrderSummary is a row of the sub-order listing.
type SubOrderSummary struct {
	ID             uuid.UUID                   `json:"id"`
	OrderID        uuid.UUID                   `json:"orderId"`
	Kind           enums.OrderKind             `json:"kind"`
	StoreID        uuid.UUID                   `json:"storeId"`
	CompanyID      uuid.UUID                   `json:"companyId"`
	OrderStatus    enums.OrderStatus           `json:"orderStatus"`
	OrderState     *enums.AggregatedOrderState `json:"orderState,omitempty"`
	SubTotal       decimal.Decimal             `json:"subTotal"`
	DisplayTotal   decimal.Decimal             `json:"displayTotal"`
	LineCount      int                         `json:"lineCount"`
	DeliveredAt    *time.Time                  `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time                   `json:"createdAt"`
	CancelStatus   *enums.CancelStatus         `json:"cancelStatus,omitempty"`
	ReturnStatus   *enums.ReturnStatus         `json:"returnStatus,omitempty"`
	ReturnQuantity int                         `json:"returnQuantity,omitempty"`
}

// SubOrderList is one page of the listing.
type SubOrderList struct {
	Items      []SubOrderSummary `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func summarizeOrderItem(item models.OrderItem) SubOrderSummary {
	return SubOrderSummary{
		ID:           item.ID,
		OrderID:      item.OrderID,
		Kind:         enums.OrderKindSimple,
		StoreID:      item.StoreID,
		CompanyID:    item.CompanyID,
		OrderStatus:  item.OrderStatus,
		SubTotal:     item.SubTotal,
		DisplayTotal: money.Display(item.SubTotal),
		LineCount:    len(item.Products),
		DeliveredAt:  item.DeliveredAt,
		CreatedAt:    item.CreatedAt,
	}
}

func summarizeAggregatedItem(item models.AggregatedOrderItem) SubOrderSummary {
	state := item.OrderState
	return SubOrderSummary{
		ID:             item.ID,
		OrderID:        item.AggregatedOrderID,
		Kind:           enums.OrderKindAggregated,
		StoreID:        item.StoreID,
		CompanyID:      item.CompanyID,
		OrderStatus:    item.OrderStatus,
		OrderState:     &state,
		SubTotal:       item.SubTotal,
		DisplayTotal:   money.Display(item.SubTotal),
		LineCount:      len(item.Products),
		DeliveredAt:    item.DeliveredAt,
		CreatedAt:      item.CreatedAt,
		CancelStatus:   item.CancelStatus,
		ReturnStatus:   item.ReturnStatus,
		ReturnQuantity: item.ReturnQuantity,
	}
}
