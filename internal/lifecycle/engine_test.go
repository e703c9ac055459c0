package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/internal/address"
	"github.com/angelmondragon/fulfillment-engine/internal/allocation"
	"github.com/angelmondragon/fulfillment-engine/internal/cart"
	"github.com/angelmondragon/fulfillment-engine/internal/inventory"
	"github.com/angelmondragon/fulfillment-engine/internal/orders"
	"github.com/angelmondragon/fulfillment-engine/internal/pricerules"
	"github.com/angelmondragon/fulfillment-engine/internal/stores"
	"github.com/angelmondragon/fulfillment-engine/pkg/db"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/dbtest"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

var placedAt = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	orders    orders.Service
	engine    Engine
	now       time.Time
	companyID uuid.UUID
	store     models.Store
	buyer     types.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	f := &fixture{
		db:        conn,
		now:       placedAt,
		companyID: uuid.New(),
		buyer:     types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer},
	}

	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), nil, nil)
	require.NoError(t, err)
	addresses, err := address.NewService(address.NewRepository(conn))
	require.NoError(t, err)
	rules, err := pricerules.NewService(pricerules.NewRepository(conn))
	require.NoError(t, err)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)

	f.orders, err = orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		Tx:         db.NewFromConn(conn),
		Ledger:     ledger,
		Resolver:   allocation.NewResolver(),
		Addresses:  addresses,
		PriceRules: rules,
		Cart:       cart.NewRepository(conn),
		Stores:     stores.NewRepository(conn),
		Outbox:     emitter,
	})
	require.NoError(t, err)

	f.engine, err = NewEngine(EngineParams{
		Repository:      NewRepository(conn),
		Tx:              db.NewFromConn(conn),
		Ledger:          ledger,
		Outbox:          emitter,
		RestockOnReject: true,
		Clock:           func() time.Time { return f.now },
	})
	require.NoError(t, err)

	f.store = models.Store{ID: uuid.New(), CompanyID: f.companyID, Name: "flagship", Type: enums.StoreTypeCompanyOwn}
	dbtest.Create(t, conn, &f.store)
	return f
}

func (f *fixture) storeActor() types.Actor {
	return types.Actor{ID: f.store.ID, Role: enums.ActorRoleStore}
}

func (f *fixture) companyActor() types.Actor {
	id := f.companyID
	return types.Actor{ID: uuid.New(), Role: enums.ActorRoleCompany, CompanyID: &id}
}

// product creates a product stocked at the flagship store, or in the pool
// when pooled is set.
func (f *fixture) product(t *testing.T, p models.Product, stock int, pooled bool) models.Product {
	t.Helper()
	p.ID = uuid.New()
	p.CompanyID = f.companyID
	if p.Name == "" {
		p.Name = "Widget"
	}
	if p.Price.IsZero() {
		p.Price = decimal.NewFromInt(100)
	}
	p.MRP = p.Price.Add(decimal.NewFromInt(20))
	p.StockLevel = stock
	dbtest.Create(t, f.db, &p)

	var storeID *uuid.UUID
	if !pooled {
		storeID = &f.store.ID
	}
	dbtest.Create(t, f.db, &models.StoreProductStock{
		ID:         uuid.New(),
		StoreID:    storeID,
		CompanyID:  f.companyID,
		ProductID:  p.ID,
		StockLevel: stock,
	})
	return p
}

func (f *fixture) placeSimple(t *testing.T, p models.Product, quantity int) orders.SubOrder {
	t.Helper()
	result, err := f.orders.PlaceOrder(context.Background(), f.buyer, orders.PlaceOrderInput{
		Address:       deliverTo("110001"),
		PaymentMethod: enums.PaymentMethodPrepaid,
		Lines:         []orders.LineRequest{{ProductID: p.ID, Quantity: quantity}},
	})
	require.NoError(t, err)
	require.Len(t, result.SubOrders, 1)
	return result.SubOrders[0]
}

func (f *fixture) placeAggregated(t *testing.T, actor types.Actor, p models.Product, quantity int) orders.SubOrder {
	t.Helper()
	result, err := f.orders.PlaceAggregatedOrder(context.Background(), actor, orders.PlaceAggregatedOrderInput{
		Address:       deliverTo("400001"),
		PaymentMethod: enums.PaymentMethodCredit,
		Lines:         []orders.LineRequest{{ProductID: p.ID, Quantity: quantity}},
	})
	require.NoError(t, err)
	require.Len(t, result.SubOrders, 1)
	return result.SubOrders[0]
}

func (f *fixture) simple(actor types.Actor, sub orders.SubOrder, target string, payload Payload) (*UpdatedState, error) {
	return f.engine.ChangeLineStatus(context.Background(), actor, ChangeRequest{
		SubOrderID: sub.ID,
		Target:     target,
		Payload:    payload,
	})
}

func (f *fixture) aggregated(actor types.Actor, sub orders.SubOrder, target string, payload Payload) (*UpdatedState, error) {
	return f.engine.ChangeAggregatedLineStatus(context.Background(), actor, ChangeRequest{
		SubOrderID: sub.ID,
		Target:     target,
		Payload:    payload,
	})
}

// deliver walks a sub-order from pending to completed as its fulfiller.
func (f *fixture) deliver(t *testing.T, move func(types.Actor, orders.SubOrder, string, Payload) (*UpdatedState, error), actor types.Actor, sub orders.SubOrder, codes map[uuid.UUID][]string) {
	t.Helper()
	_, err := move(actor, sub, "accepted", Payload{})
	require.NoError(t, err)
	dispatch := dispatchPayload()
	dispatch.WarrantyCodes = codes
	_, err = move(actor, sub, "ready_to_dispatch", dispatch)
	require.NoError(t, err)
	_, err = move(actor, sub, "in_transit", Payload{})
	require.NoError(t, err)
	_, err = move(actor, sub, "completed", Payload{})
	require.NoError(t, err)
}

func (f *fixture) orderItem(t *testing.T, id uuid.UUID) models.OrderItem {
	t.Helper()
	var item models.OrderItem
	require.NoError(t, f.db.Preload("Products").First(&item, "id = ?", id).Error)
	return item
}

func (f *fixture) aggregatedItem(t *testing.T, id uuid.UUID) models.AggregatedOrderItem {
	t.Helper()
	var item models.AggregatedOrderItem
	require.NoError(t, f.db.Preload("Products").First(&item, "id = ?", id).Error)
	return item
}

func (f *fixture) levels(t *testing.T, p models.Product, key inventory.StockKey) (int, int) {
	t.Helper()
	var row models.Product
	require.NoError(t, f.db.First(&row, "id = ?", p.ID).Error)
	stock, err := inventory.NewRepository(f.db).FindStock(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, stock)
	return row.StockLevel, stock.StockLevel
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func deliverTo(pincode string) *types.AddressSnapshot {
	return &types.AddressSnapshot{
		Name:       "Ravi",
		Phone:      "9876543210",
		Line1:      "4 Station Road",
		City:       "Mumbai",
		State:      "MH",
		PostalCode: pincode,
		Country:    "IN",
	}
}

func dispatchPayload() Payload {
	ship := placedAt.Add(24 * time.Hour)
	return Payload{
		ShipDate:         &ship,
		TrackID:          ptr("TRK-1001"),
		CourierCompanyID: ptr("bluedart"),
		Note:             ptr("fragile"),
	}
}

func ptr(s string) *string {
	return &s
}

func lineOf(sub orders.SubOrder) *uuid.UUID {
	id := sub.Lines[0].ID
	return &id
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	_, err := NewEngine(EngineParams{})
	require.Error(t, err)
}

func TestProcessingToCompletedStampsDeadlines(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{Name: "Toaster", ReturnOption: true, ReturnDays: 7}, 10, false)
	sub := f.placeSimple(t, p, 2)

	f.deliver(t, f.simple, f.storeActor(), sub, nil)

	item := f.orderItem(t, sub.ID)
	require.Equal(t, enums.OrderStatusCompleted, item.OrderStatus)
	require.NotNil(t, item.DeliveredAt)
	require.WithinDuration(t, placedAt, *item.DeliveredAt, time.Second)
	require.Equal(t, "TRK-1001", *item.TrackID)
	require.NotNil(t, item.Products[0].ReturnDate)
	require.WithinDuration(t, placedAt.AddDate(0, 0, 7), *item.Products[0].ReturnDate, time.Second)
	require.Nil(t, item.Products[0].WarrantyExpiresAt)

	require.EqualValues(t, 5, f.count(t, &models.OrderStatusHistory{}, "order_item_id = ?", sub.ID))
	events, err := outbox.NewRepository(f.db).ListByAggregate(enums.AggregateSubOrder, sub.ID)
	require.NoError(t, err)
	require.Len(t, events, 4)

	history, err := f.engine.History(context.Background(), f.buyer, enums.OrderKindSimple, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	require.Nil(t, history[0].From)
	require.Equal(t, "completed", history[4].To)
}

func TestReadyToDispatchRequiresShipDate(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 5, false)
	sub := f.placeSimple(t, p, 1)

	_, err := f.simple(f.storeActor(), sub, "accepted", Payload{})
	require.NoError(t, err)

	payload := dispatchPayload()
	payload.ShipDate = nil
	_, err = f.simple(f.storeActor(), sub, "ready_to_dispatch", payload)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)

	item := f.orderItem(t, sub.ID)
	require.Equal(t, enums.OrderStatusAccepted, item.OrderStatus)
	require.Nil(t, item.TrackID)
	require.EqualValues(t, 2, f.count(t, &models.OrderStatusHistory{}, "order_item_id = ?", sub.ID))
}

func TestIllegalTransitionLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 5, false)
	sub := f.placeSimple(t, p, 1)

	for _, target := range []string{"completed", "in_transit", "ready_to_dispatch", "shipped"} {
		_, err := f.simple(f.storeActor(), sub, target, Payload{})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition), "%s: got %v", target, err)
	}

	require.Equal(t, enums.OrderStatusPending, f.orderItem(t, sub.ID).OrderStatus)
	require.EqualValues(t, 1, f.count(t, &models.OrderStatusHistory{}, "order_item_id = ?", sub.ID))
	require.Zero(t, f.count(t, &models.OutboxEvent{}, "aggregate_type = ?", enums.AggregateSubOrder))
}

func TestTransitionsRequireTheRightActor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 5, false)
	sub := f.placeSimple(t, p, 1)

	otherStore := types.Actor{ID: uuid.New(), Role: enums.ActorRoleStore}
	otherCompanyID := uuid.New()
	otherCompany := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCompany, CompanyID: &otherCompanyID}

	for name, actor := range map[string]types.Actor{
		"placer":        f.buyer,
		"other store":   otherStore,
		"other company": otherCompany,
		"anonymous":     {},
	} {
		_, err := f.simple(actor, sub, "accepted", Payload{})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeActorNotAuthorized), "%s: got %v", name, err)
	}

	_, err := f.simple(f.companyActor(), sub, "accepted", Payload{})
	require.NoError(t, err)

	stranger := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	_, err = f.simple(stranger, sub, "cancelled", Payload{LineID: lineOf(sub)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeActorNotAuthorized))

	_, err = f.engine.History(context.Background(), stranger, enums.OrderKindSimple, sub.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeActorNotAuthorized))
}

func TestUnknownSubOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.simple(f.storeActor(), orders.SubOrder{ID: uuid.New()}, "accepted", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotFound))

	_, err = f.engine.Change(context.Background(), f.storeActor(), ChangeRequest{Kind: "bulk", SubOrderID: uuid.New(), Target: "accepted"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCancelRefundRestoresStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{Name: "Blender"}, 10, false)
	sub := f.placeSimple(t, p, 3)
	key := inventory.AtStore(f.store.ID, f.companyID, p.ID)

	total, row := f.levels(t, p, key)
	require.Equal(t, 7, total)
	require.Equal(t, 7, row)

	opened, err := f.simple(f.buyer, sub, "cancelled", Payload{LineID: lineOf(sub), Reason: ptr("changed my mind")})
	require.NoError(t, err)
	require.Equal(t, enums.FlowCancel, opened.Machine)
	require.Equal(t, enums.CancelStatusPending, *opened.CancelStatus)
	require.Equal(t, enums.OrderStatusPending, opened.OrderStatus)

	_, err = f.simple(f.buyer, sub, "cancelled", Payload{LineID: lineOf(sub)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateRequest), "got %v", err)
	require.EqualValues(t, 1, f.count(t, &models.CancelOrder{}, "order_item_id = ?", sub.ID))

	_, err = f.simple(f.storeActor(), sub, "refunded", Payload{Flow: enums.FlowCancel, LineID: lineOf(sub)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))

	_, err = f.simple(f.storeActor(), sub, "accepted", Payload{Flow: enums.FlowCancel, RequestID: opened.RequestID})
	require.NoError(t, err)
	line := f.orderItem(t, sub.ID).Products[0]
	require.True(t, line.IsCancel)
	require.Equal(t, enums.LineStatusCancelled, line.Status)

	_, err = f.simple(f.buyer, sub, "cancelled", Payload{LineID: lineOf(sub)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	_, err = f.simple(f.storeActor(), sub, "refunded", Payload{Flow: enums.FlowCancel, LineID: lineOf(sub)})
	require.NoError(t, err)

	total, row = f.levels(t, p, key)
	require.Equal(t, 10, total)
	require.Equal(t, 10, row)
	require.EqualValues(t, 3, f.count(t, &models.CancelOrderStatusHistory{}, "order_item_id = ?", sub.ID))
	require.EqualValues(t, 1, f.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventStockRestored))

	history, err := f.engine.History(context.Background(), f.buyer, enums.OrderKindSimple, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, enums.FlowCancel, history[3].Machine)
	require.Equal(t, "refunded", history[3].To)
}

func TestRejectReturnsStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 10, false)
	sub := f.placeSimple(t, p, 4)
	key := inventory.AtStore(f.store.ID, f.companyID, p.ID)

	_, err := f.simple(f.storeActor(), sub, "rejected", Payload{Reason: ptr("out of season")})
	require.NoError(t, err)

	total, row := f.levels(t, p, key)
	require.Equal(t, 10, total)
	require.Equal(t, 10, row)

	_, err = f.simple(f.storeActor(), sub, "accepted", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestRejectClosesPendingCancel(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{Name: "Kettle"}, 10, false)
	sub := f.placeSimple(t, p, 3)
	key := inventory.AtStore(f.store.ID, f.companyID, p.ID)

	opened, err := f.simple(f.buyer, sub, "cancelled", Payload{LineID: lineOf(sub)})
	require.NoError(t, err)

	_, err = f.simple(f.storeActor(), sub, "accepted", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	require.Equal(t, enums.OrderStatusPending, f.orderItem(t, sub.ID).OrderStatus)

	_, err = f.simple(f.storeActor(), sub, "rejected", Payload{Reason: ptr("cannot fulfil")})
	require.NoError(t, err)

	total, row := f.levels(t, p, key)
	require.Equal(t, 10, total)
	require.Equal(t, 10, row)

	var req models.CancelOrder
	require.NoError(t, f.db.First(&req, "id = ?", *opened.RequestID).Error)
	require.Equal(t, enums.CancelStatusRejected, req.Status)
	require.EqualValues(t, 2, f.count(t, &models.CancelOrderStatusHistory{}, "cancel_order_id = ?", req.ID))

	for _, target := range []string{"accepted", "refunded"} {
		_, err = f.simple(f.storeActor(), sub, target, Payload{Flow: enums.FlowCancel, RequestID: opened.RequestID})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition), "%s: got %v", target, err)
	}

	total, row = f.levels(t, p, key)
	require.Equal(t, 10, total)
	require.Equal(t, 10, row)
	require.Zero(t, f.count(t, &models.OrderProduct{}, "order_item_id = ? AND is_cancel = ?", sub.ID, true))
}

func TestReturnWindowExpires(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{ReturnOption: true, ReturnDays: 7}, 5, false)
	sub := f.placeSimple(t, p, 1)
	f.deliver(t, f.simple, f.storeActor(), sub, nil)

	f.now = placedAt.AddDate(0, 0, 8)
	_, err := f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeReturnWindowExpired), "got %v", err)
	require.Zero(t, f.count(t, &models.ReturnOrder{}, "order_item_id = ?", sub.ID))
}

func TestNonReturnableLineHasNoWindow(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{ReturnDays: 7}, 5, false)
	sub := f.placeSimple(t, p, 1)
	f.deliver(t, f.simple, f.storeActor(), sub, nil)

	_, err := f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeReturnWindowExpired))
}

func TestPartialReturnLifecycle(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{Name: "Speaker", ReturnOption: true, ReturnDays: 10}, 10, false)
	sub := f.placeSimple(t, p, 3)
	f.deliver(t, f.simple, f.storeActor(), sub, nil)
	f.now = placedAt.AddDate(0, 0, 2)
	key := inventory.AtStore(f.store.ID, f.companyID, p.ID)

	_, err := f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 4})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientReturnQty))

	opened, err := f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 1, Reason: ptr("crackle")})
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusPending, *opened.ReturnStatus)
	require.Equal(t, enums.OrderStatusCompleted, opened.OrderStatus)

	_, err = f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateRequest))

	returns := func(target string, payload Payload) error {
		payload.Flow = enums.FlowReturn
		payload.LineID = lineOf(sub)
		_, err := f.simple(f.storeActor(), sub, target, payload)
		return err
	}

	require.NoError(t, returns("accepted", Payload{}))
	line := f.orderItem(t, sub.ID).Products[0]
	require.Equal(t, 1, line.ReturnQuantity)
	require.Equal(t, enums.LineStatusReturnProcessing, line.Status)

	require.True(t, pkgerrors.HasCode(returns("pick_up", Payload{}), pkgerrors.CodeValidation))
	pickup := placedAt.AddDate(0, 0, 3)
	require.NoError(t, returns("pick_up", Payload{PickUpDate: &pickup, PickUpCourierCompanyID: ptr("delhivery")}))
	require.NoError(t, returns("received", Payload{}))

	require.True(t, pkgerrors.HasCode(returns("refunded", Payload{}), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.HasCode(returns("refunded", Payload{
		TransactionID: ptr("txn-1"),
		RefundAmount:  decimal.NewNullDecimal(decimal.NewFromInt(-5)),
	}), pkgerrors.CodeValidation))
	require.NoError(t, returns("refunded", Payload{
		TransactionID: ptr("txn-1"),
		RefundAmount:  decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}))

	var req models.ReturnOrder
	require.NoError(t, f.db.First(&req, "id = ?", *opened.RequestID).Error)
	require.Equal(t, enums.ReturnStatusRefunded, req.Status)
	require.Equal(t, "delhivery", *req.PickUpCourierCompanyID)
	require.Equal(t, "txn-1", *req.TransactionID)
	require.True(t, req.RefundAmount.Decimal.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, req.RefundedAt)

	total, row := f.levels(t, p, key)
	require.Equal(t, 8, total)
	require.Equal(t, 8, row)

	_, err = f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 3})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientReturnQty))
	_, err = f.simple(f.buyer, sub, "return", Payload{LineID: lineOf(sub), Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, returns("accepted", Payload{}))

	line = f.orderItem(t, sub.ID).Products[0]
	require.Equal(t, 3, line.ReturnQuantity)
	require.Equal(t, enums.LineStatusReturn, line.Status)
	require.EqualValues(t, 7, f.count(t, &models.ReturnOrderStatusHistory{}, "order_item_id = ?", sub.ID))
}

func TestWarrantyCodesRequiredForDispatch(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{Name: "Drill", WarrantyYears: 1}, 5, false)
	sub := f.placeSimple(t, p, 2)
	lineID := sub.Lines[0].ID

	_, err := f.simple(f.storeActor(), sub, "accepted", Payload{})
	require.NoError(t, err)

	payload := dispatchPayload()
	payload.WarrantyCodes = map[uuid.UUID][]string{lineID: {"W-1", "  "}}
	_, err = f.simple(f.storeActor(), sub, "ready_to_dispatch", payload)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingWarrantyCodes), "got %v", err)

	payload.WarrantyCodes = map[uuid.UUID][]string{lineID: {"W-1", " W-2 "}}
	_, err = f.simple(f.storeActor(), sub, "ready_to_dispatch", payload)
	require.NoError(t, err)
	_, err = f.simple(f.storeActor(), sub, "in_transit", Payload{})
	require.NoError(t, err)
	_, err = f.simple(f.storeActor(), sub, "completed", Payload{})
	require.NoError(t, err)

	line := f.orderItem(t, sub.ID).Products[0]
	require.Equal(t, []string{"W-1", "W-2"}, line.WarrantyCodes)
	require.NotNil(t, line.WarrantyExpiresAt)
	require.WithinDuration(t, placedAt.AddDate(0, 0, 365), *line.WarrantyExpiresAt, time.Second)
}

func TestExplicitFlowMustMatch(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 5, false)
	sub := f.placeSimple(t, p, 1)

	_, err := f.simple(f.storeActor(), sub, "accepted", Payload{Flow: "barter"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.simple(f.storeActor(), sub, "accepted", Payload{Flow: enums.FlowReturn, LineID: lineOf(sub)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestAggregatedCancelRejectedThenReturned(t *testing.T) {
	f := newFixture(t)
	distributor := types.Actor{ID: uuid.New(), Role: enums.ActorRoleDistributor}
	company := f.companyActor()
	p := f.product(t, models.Product{Name: "Router", ReturnOption: true, ReturnDays: 14}, 50, true)
	pool := inventory.Pool(f.companyID, p.ID)

	// Without an own store the pool books the sub-order to the company.
	require.NoError(t, f.db.Delete(&f.store).Error)
	sub := f.placeAggregated(t, distributor, p, 10)
	require.Equal(t, f.companyID, sub.StoreID)

	state, err := f.aggregated(distributor, sub, "cancelled", Payload{Reason: ptr("overstock")})
	require.NoError(t, err)
	require.Equal(t, enums.AggregatedOrderStateCancelled, *state.OrderState)
	require.Equal(t, enums.CancelStatusPending, *state.CancelStatus)

	_, err = f.aggregated(distributor, sub, "cancelled", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateRequest))
	_, err = f.aggregated(company, sub, "accepted", Payload{Flow: enums.FlowProcessing})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))

	state, err = f.aggregated(company, sub, "rejected", Payload{})
	require.NoError(t, err)
	require.Equal(t, enums.AggregatedOrderStateProcessing, *state.OrderState)
	require.Equal(t, enums.CancelStatusRejected, *state.CancelStatus)

	f.deliver(t, f.aggregated, company, sub, nil)
	f.now = placedAt.AddDate(0, 0, 1)

	state, err = f.aggregated(distributor, sub, "return", Payload{LineID: lineOf(sub), Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, enums.AggregatedOrderStateProcessingReturn, *state.OrderState)
	require.Equal(t, 2, state.ReturnQuantity)

	_, err = f.aggregated(distributor, sub, "return", Payload{LineID: lineOf(sub), Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateRequest))
	_, err = f.aggregated(distributor, sub, "accepted", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeActorNotAuthorized))

	pickup := f.now.AddDate(0, 0, 1)
	for _, step := range []struct {
		target  string
		payload Payload
	}{
		{"accepted", Payload{}},
		{"pick_up", Payload{PickUpDate: &pickup, PickUpCourierCompanyID: ptr("ecom")}},
		{"received", Payload{}},
		{"refunded", Payload{TransactionID: ptr("txn-9"), CourierAmount: decimal.NewNullDecimal(decimal.NewFromInt(50))}},
	} {
		_, err := f.aggregated(company, sub, step.target, step.payload)
		require.NoError(t, err, step.target)
	}

	item := f.aggregatedItem(t, sub.ID)
	require.Equal(t, enums.AggregatedOrderStateProcessingReturn, item.OrderState)
	require.Equal(t, enums.ReturnStatusRefunded, *item.ReturnStatus)
	require.Equal(t, enums.OrderStatusCompleted, item.OrderStatus)
	require.Equal(t, 2, item.Products[0].ReturnQuantity)
	require.Equal(t, "txn-9", *item.TransactionID)

	total, row := f.levels(t, p, pool)
	require.Equal(t, 42, total)
	require.Equal(t, 42, row)

	state, err = f.aggregated(distributor, sub, "return", Payload{LineID: lineOf(sub), Quantity: 8})
	require.NoError(t, err)
	require.Equal(t, enums.AggregatedOrderStateReturn, *state.OrderState)

	history, err := f.engine.History(context.Background(), company, enums.OrderKindAggregated, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 13)
	require.Equal(t, enums.FlowCancel, history[1].Machine)
	require.Equal(t, enums.AggregatedOrderStateReturn, *history[12].OrderState)
}

func TestAggregatedReturnHoldsOneSlotPerSubOrder(t *testing.T) {
	f := newFixture(t)
	distributor := types.Actor{ID: uuid.New(), Role: enums.ActorRoleDistributor}
	company := f.companyActor()
	router := f.product(t, models.Product{Name: "Router", ReturnOption: true, ReturnDays: 14}, 20, true)
	switchP := f.product(t, models.Product{Name: "Switch", ReturnOption: true, ReturnDays: 14}, 20, true)

	result, err := f.orders.PlaceAggregatedOrder(context.Background(), distributor, orders.PlaceAggregatedOrderInput{
		Address:       deliverTo("400001"),
		PaymentMethod: enums.PaymentMethodCredit,
		Lines: []orders.LineRequest{
			{ProductID: router.ID, Quantity: 2},
			{ProductID: switchP.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.SubOrders, 1)
	sub := result.SubOrders[0]
	require.Len(t, sub.Lines, 2)
	first, second := sub.Lines[0].ID, sub.Lines[1].ID

	f.deliver(t, f.aggregated, company, sub, nil)

	_, err = f.aggregated(distributor, sub, "return", Payload{LineID: &first, Quantity: 1})
	require.NoError(t, err)
	_, err = f.aggregated(distributor, sub, "return", Payload{LineID: &second, Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateRequest), "got %v", err)

	_, err = f.aggregated(company, sub, "rejected", Payload{})
	require.NoError(t, err)

	state, err := f.aggregated(distributor, sub, "return", Payload{LineID: &second, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, second, *state.LineID)
	require.Equal(t, second, *f.aggregatedItem(t, sub.ID).ReturnLineID)
}

func TestAggregatedCancelRefundRestoresPool(t *testing.T) {
	f := newFixture(t)
	distributor := types.Actor{ID: uuid.New(), Role: enums.ActorRoleDistributor}
	p := f.product(t, models.Product{}, 30, true)
	require.NoError(t, f.db.Delete(&f.store).Error)
	sub := f.placeAggregated(t, distributor, p, 10)
	company := f.companyActor()

	_, err := f.aggregated(distributor, sub, "cancelled", Payload{})
	require.NoError(t, err)
	_, err = f.aggregated(company, sub, "accepted", Payload{})
	require.NoError(t, err)
	require.True(t, f.aggregatedItem(t, sub.ID).Products[0].IsCancel)

	_, err = f.aggregated(company, sub, "refunded", Payload{})
	require.NoError(t, err)

	total, row := f.levels(t, p, inventory.Pool(f.companyID, p.ID))
	require.Equal(t, 30, total)
	require.Equal(t, 30, row)

	item := f.aggregatedItem(t, sub.ID)
	require.Equal(t, enums.AggregatedOrderStateCancelled, item.OrderState)
	require.Equal(t, enums.CancelStatusRefunded, *item.CancelStatus)

	_, err = f.aggregated(company, sub, "accepted", Payload{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestTransferSubOrderRestoresNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, models.Product{}, 2, false)
	placer := types.Actor{ID: uuid.New(), Role: enums.ActorRoleStore}
	sub := f.placeAggregated(t, placer, p, 20)
	fulfiller := f.storeActor()

	_, err := f.aggregated(placer, sub, "cancelled", Payload{})
	require.NoError(t, err)
	_, err = f.aggregated(fulfiller, sub, "accepted", Payload{})
	require.NoError(t, err)
	_, err = f.aggregated(fulfiller, sub, "refunded", Payload{})
	require.NoError(t, err)

	total, row := f.levels(t, p, inventory.AtStore(f.store.ID, f.companyID, p.ID))
	require.Equal(t, 2, total)
	require.Equal(t, 2, row)
	require.Zero(t, f.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventStockRestored))
}
