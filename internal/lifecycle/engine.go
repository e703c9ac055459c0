package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/internal/inventory"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

// Compensation reasons recorded on restored stock.
const (
	ReasonRejected     = "rejected"
	ReasonCancelRefund = "cancel_refund"
	ReasonReturnRefund = "return_refund"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, mv inventory.Movement, reason string) error
}

type transitionMetrics interface {
	IncTransition(kind, machine, to string)
}

// Engine moves sub-orders through the processing, cancel and return machines.
type Engine interface {
	Change(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error)
	ChangeLineStatus(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error)
	ChangeAggregatedLineStatus(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error)
	History(ctx context.Context, actor types.Actor, kind enums.OrderKind, subOrderID uuid.UUID) ([]HistoryEntry, error)
}

type EngineParams struct {
	Repository Repository
	Tx         txRunner
	Ledger     stockRestorer
	Outbox     outbox.Emitter
	Metrics    transitionMetrics
	Logger     *logger.Logger
	// RestockOnReject returns the quantity of every line to stock when a
	// pending sub-order is rejected.
	RestockOnReject bool
	Clock           func() time.Time
}

type engine struct {
	repo            Repository
	tx              txRunner
	ledger          stockRestorer
	outbox          outbox.Emitter
	metrics         transitionMetrics
	logg            *logger.Logger
	restockOnReject bool
	clock           func() time.Time
}

func NewEngine(params EngineParams) (Engine, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("lifecycle repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &engine{
		repo:            params.Repository,
		tx:              params.Tx,
		ledger:          params.Ledger,
		outbox:          params.Outbox,
		metrics:         params.Metrics,
		logg:            params.Logger,
		restockOnReject: params.RestockOnReject,
		clock:           clock,
	}, nil
}

func (e *engine) Change(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error) {
	switch req.Kind {
	case enums.OrderKindSimple:
		return e.ChangeLineStatus(ctx, actor, req)
	case enums.OrderKindAggregated:
		return e.ChangeAggregatedLineStatus(ctx, actor, req)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order kind")
	}
}

func (e *engine) ChangeLineStatus(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error) {
	req.Kind = enums.OrderKindSimple
	return e.run(ctx, actor, req, (*transition).changeSimple)
}

func (e *engine) ChangeAggregatedLineStatus(ctx context.Context, actor types.Actor, req ChangeRequest) (*UpdatedState, error) {
	req.Kind = enums.OrderKindAggregated
	return e.run(ctx, actor, req, (*transition).changeAggregated)
}

type step func(t *transition, ctx context.Context) (*UpdatedState, error)

// run executes one transition in its own transaction. Any error rolls back the
// state change, its audit row, its events and its stock compensation together.
func (e *engine) run(ctx context.Context, actor types.Actor, req ChangeRequest, fn step) (*UpdatedState, error) {
	if err := actor.Validate(); err != nil {
		return nil, pkgerrors.ActorNotAuthorized(err.Error())
	}
	if req.SubOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required")
	}
	if strings.TrimSpace(req.Target) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target status required")
	}
	if req.Payload.Flow != "" && !req.Payload.Flow.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid flow").
			WithDetails(map[string]any{"flow": req.Payload.Flow})
	}

	if e.logg != nil {
		ctx = e.logg.WithSubOrder(ctx, string(req.Kind), req.SubOrderID.String())
	}

	var out *UpdatedState
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		t := &transition{
			e:     e,
			tx:    tx,
			repo:  e.repo.WithTx(tx),
			actor: actor,
			req:   req,
			now:   e.clock().UTC(),
		}
		var err error
		out, err = fn(t, ctx)
		return err
	})
	if err != nil {
		if e.logg != nil {
			logCtx := e.logg.WithFields(ctx, map[string]any{
				"target":     req.Target,
				"actor_id":   actor.ID.String(),
				"actor_role": string(actor.Role),
				"error":      err.Error(),
			})
			e.logg.Warn(logCtx, "sub-order transition rejected")
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.IncTransition(string(out.Kind), string(out.Machine), out.To)
	}
	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"machine": string(out.Machine),
			"from":    out.From,
			"to":      out.To,
		})
		e.logg.Info(logCtx, "sub-order transitioned")
	}
	return out, nil
}

// transition is the state of one in-flight change.
type transition struct {
	e     *engine
	tx    *gorm.DB
	repo  Repository
	actor types.Actor
	req   ChangeRequest
	now   time.Time
}

// subOrder is the kind-independent view the shared side effects work on.
type subOrder struct {
	kind        enums.OrderKind
	id          uuid.UUID
	own         ownership
	dispatch    *models.Dispatch
	deliveredAt **time.Time
	lines       []lineRef
}

type lineRef struct {
	id   uuid.UUID
	line *models.Line
	save func(ctx context.Context, columns ...string) error
}

func (s *subOrder) find(id uuid.UUID) (lineRef, bool) {
	for _, ref := range s.lines {
		if ref.id == id {
			return ref, true
		}
	}
	return lineRef{}, false
}

// requestedLine resolves payload.lineId against the sub-order.
func (t *transition) requestedLine(sub *subOrder) (lineRef, error) {
	if t.req.Payload.LineID == nil {
		return lineRef{}, pkgerrors.New(pkgerrors.CodeValidation, "lineId required")
	}
	ref, ok := sub.find(*t.req.Payload.LineID)
	if !ok {
		return lineRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "line not found on sub-order").
			WithDetails(map[string]any{"lineId": t.req.Payload.LineID.String()})
	}
	return ref, nil
}

// advance applies the side effects of a processing move and returns the
// sub-order columns it changed besides order_status.
func (t *transition) advance(ctx context.Context, sub *subOrder, to enums.OrderStatus) ([]string, error) {
	switch to {
	case enums.OrderStatusReadyToDispatch:
		p := t.req.Payload
		if err := requireDispatch(p); err != nil {
			return nil, err
		}
		codes, err := warrantyAssignments(sub, p.WarrantyCodes)
		if err != nil {
			return nil, err
		}
		sub.dispatch.ShipDate = p.ShipDate
		sub.dispatch.TrackID = p.TrackID
		sub.dispatch.CourierCompanyID = p.CourierCompanyID
		sub.dispatch.Note = p.Note
		for _, ref := range sub.lines {
			assigned, ok := codes[ref.id]
			if !ok {
				continue
			}
			ref.line.WarrantyCodes = assigned
			if err := ref.save(ctx, "warranty_codes"); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store warranty codes")
			}
		}
		return []string{"ship_date", "track_id", "courier_company_id", "note"}, nil

	case enums.OrderStatusCompleted:
		delivered := t.now
		*sub.deliveredAt = &delivered
		for _, ref := range sub.lines {
			stampDeadlines(ref.line, t.now)
			if err := ref.save(ctx, "return_date", "warranty_expires_at"); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp line deadlines")
			}
		}
		return []string{"delivered_at"}, nil

	case enums.OrderStatusRejected:
		if !t.e.restockOnReject {
			return nil, nil
		}
		for _, ref := range sub.lines {
			if ref.line.IsCancel {
				continue
			}
			if err := t.restore(ctx, sub, ref, ref.line.RemainingQuantity(), ReasonRejected); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// stampDeadlines sets the return window and warranty expiry from the delivery
// time. A line without return days gets no window.
func stampDeadlines(line *models.Line, delivered time.Time) {
	line.ReturnDate = nil
	if line.ReturnDays > 0 {
		deadline := delivered.AddDate(0, 0, line.ReturnDays)
		line.ReturnDate = &deadline
	}
	line.WarrantyExpiresAt = nil
	if line.WarrantyYears > 0 {
		expires := delivered.AddDate(0, 0, line.WarrantyYears*365)
		line.WarrantyExpiresAt = &expires
	}
}

func requireDispatch(p Payload) error {
	var errs error
	var missing []string
	check := func(field string, present bool) {
		if !present {
			missing = append(missing, field)
			errs = multierr.Append(errs, fmt.Errorf("%s required", field))
		}
	}
	check("shipDate", p.ShipDate != nil && !p.ShipDate.IsZero())
	check("trackId", present(p.TrackID))
	check("note", present(p.Note))
	check("courierCompanyId", present(p.CourierCompanyID))
	if errs == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "dispatch details incomplete").
		WithDetails(map[string]any{"missing": missing})
}

// warrantyAssignments requires one non-blank code per unit on every live line
// that carries a warranty.
func warrantyAssignments(sub *subOrder, supplied map[uuid.UUID][]string) (map[uuid.UUID][]string, error) {
	out := map[uuid.UUID][]string{}
	var missing []string
	for _, ref := range sub.lines {
		line := ref.line
		if line.WarrantyYears <= 0 || line.IsCancel {
			continue
		}
		codes := make([]string, 0, len(supplied[ref.id]))
		for _, code := range supplied[ref.id] {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) != line.Quantity {
			missing = append(missing, line.ProductName)
			continue
		}
		out[ref.id] = codes
	}
	if len(missing) > 0 {
		return nil, pkgerrors.MissingWarrantyCodes(missing)
	}
	return out, nil
}

// checkReturnable enforces the return window and the remaining quantity.
func (t *transition) checkReturnable(line *models.Line, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if line.ReturnDate == nil || t.now.After(*line.ReturnDate) {
		return pkgerrors.ReturnWindowExpired(line.ReturnDate)
	}
	if remaining := line.RemainingQuantity(); quantity > remaining {
		return pkgerrors.InsufficientReturnQuantity(quantity, remaining)
	}
	return nil
}

// acceptReturn books the returned quantity on the line.
func acceptReturn(line *models.Line, quantity int) error {
	if remaining := line.RemainingQuantity(); quantity > remaining {
		return pkgerrors.InsufficientReturnQuantity(quantity, remaining)
	}
	line.ReturnQuantity += quantity
	line.Status = enums.LineStatusReturnProcessing
	if line.ReturnQuantity == line.Quantity {
		line.Status = enums.LineStatusReturn
	}
	return nil
}

func requirePickup(p Payload) error {
	var missing []string
	if p.PickUpDate == nil || p.PickUpDate.IsZero() {
		missing = append(missing, "pickUpDate")
	}
	if !present(p.PickUpCourierCompanyID) {
		missing = append(missing, "pickUpCourierCompanyId")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup details incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func (t *transition) pickup() models.Pickup {
	p := t.req.Payload
	return models.Pickup{
		PickUpDate:             p.PickUpDate,
		PickUpTime:             p.PickUpTime,
		PickUpCourierCompanyID: p.PickUpCourierCompanyID,
		PickUpTrackID:          p.PickUpTrackID,
	}
}

func (t *transition) refund() (models.Refund, error) {
	p := t.req.Payload
	if !present(p.TransactionID) {
		return models.Refund{}, pkgerrors.New(pkgerrors.CodeValidation, "transactionId required")
	}
	amounts := []struct {
		field string
		value decimal.NullDecimal
	}{
		{"refundAmount", p.RefundAmount},
		{"courierAmount", p.CourierAmount},
		{"otherAmount", p.OtherAmount},
		{"handlingAmount", p.HandlingAmount},
	}
	for _, amount := range amounts {
		if amount.value.Valid && amount.value.Decimal.IsNegative() {
			return models.Refund{}, pkgerrors.New(pkgerrors.CodeValidation, "refund amounts must not be negative").
				WithDetails(map[string]any{"field": amount.field})
		}
	}
	refundedAt := t.now
	return models.Refund{
		TransactionID:  p.TransactionID,
		RefundAmount:   p.RefundAmount,
		CourierAmount:  p.CourierAmount,
		OtherAmount:    p.OtherAmount,
		HandlingAmount: p.HandlingAmount,
		RefundComment:  p.RefundComment,
		RefundedAt:     &refundedAt,
	}, nil
}

var pickupColumns = []string{"pick_up_date", "pick_up_time", "pick_up_courier_company_id", "pick_up_track_id"}

var refundColumns = []string{"transaction_id", "refund_amount", "courier_amount", "other_amount", "handling_amount", "refund_comment", "refunded_at"}

// restore returns quantity units of the line to the stock row it was taken
// from. Lines placed without a decrement are left alone.
func (t *transition) restore(ctx context.Context, sub *subOrder, ref lineRef, quantity int, reason string) error {
	line := ref.line
	if !line.StockDeducted || quantity <= 0 {
		return nil
	}
	key := inventory.Pool(sub.own.companyID, line.ProductID)
	if line.StockStoreID != nil {
		key = inventory.AtStore(*line.StockStoreID, sub.own.companyID, line.ProductID)
	}
	if err := t.e.ledger.Restore(ctx, t.tx, inventory.Movement{
		Key:         key,
		ProductName: line.ProductName,
		Quantity:    quantity,
	}, reason); err != nil {
		return err
	}
	return t.e.outbox.Emit(ctx, t.tx, outbox.DomainEvent{
		EventType:     enums.EventStockRestored,
		AggregateType: enums.AggregateStock,
		AggregateID:   line.ProductID,
		Actor:         t.actorRef(),
		Data: payloads.StockRestoredEvent{
			ProductID:  line.ProductID,
			CompanyID:  sub.own.companyID,
			StoreID:    line.StockStoreID,
			Quantity:   quantity,
			Reason:     reason,
			SubOrderID: sub.id,
		},
	})
}

func (t *transition) emitChange(ctx context.Context, state *UpdatedState) error {
	return t.e.outbox.Emit(ctx, t.tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateSubOrder,
		AggregateID:   state.SubOrderID,
		Actor:         t.actorRef(),
		Data: payloads.OrderStatusChangedEvent{
			SubOrderID: state.SubOrderID,
			Kind:       state.Kind,
			Machine:    state.Machine,
			RequestID:  state.RequestID,
			LineID:     state.LineID,
			From:       state.From,
			To:         state.To,
			ActorID:    t.actor.ID,
			ActorRole:  t.actor.Role,
		},
	})
}

func (t *transition) actorRef() *outbox.ActorRef {
	return &outbox.ActorRef{
		ActorID:   t.actor.ID,
		CompanyID: t.actor.CompanyID,
		Role:      string(t.actor.Role),
	}
}

// checkFlow rejects an explicit flow that names a different machine than the
// one the transition runs on.
func (t *transition) checkFlow(machine enums.Flow, from string) error {
	if flow := t.req.Payload.Flow; flow != "" && flow != machine {
		return pkgerrors.InvalidTransition(string(flow), from, t.req.Target)
	}
	return nil
}

func notFound(err error, what string) error {
	if isNotFound(err) {
		return pkgerrors.OrderNotFound()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func present(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func statusPtr(value string) *string {
	return &value
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
