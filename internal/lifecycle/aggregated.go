package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

// changeAggregated drives an aggregated sub-order. The machine is read from
// the row itself: a sub-order in a cancel or return workflow only accepts
// targets of that workflow.
func (t *transition) changeAggregated(ctx context.Context) (*UpdatedState, error) {
	item, err := t.repo.FindAggregatedItem(ctx, t.req.SubOrderID)
	if err != nil {
		return nil, notFound(err, "aggregated sub-order")
	}
	if item.AggregatedOrder == nil {
		return nil, pkgerrors.OrderNotFound()
	}
	state, err := StateOf(*item)
	if err != nil {
		return nil, err
	}
	sub := t.aggregatedSubOrder(item)

	switch s := state.(type) {
	case Processing:
		return t.aggregatedProcessing(ctx, item, sub, s)
	case Cancelled:
		if t.req.Target == string(enums.OrderStatusCancelled) && s.CancelStatus.IsOpen() {
			return nil, pkgerrors.DuplicateRequest("cancel")
		}
		return t.aggregatedCancel(ctx, item, sub, s)
	default:
		status, _ := returnStatusOf(state)
		if t.req.Target == string(enums.OrderStatusReturn) {
			if status.IsOpen() {
				return nil, pkgerrors.DuplicateRequest("return")
			}
			// A settled return leaves the sub-order delivered; another line
			// or the rest of the same line may still be returned.
			return t.aggregatedProcessing(ctx, item, sub, Processing{OrderStatus: item.OrderStatus})
		}
		return t.aggregatedReturn(ctx, item, sub, state, status)
	}
}

func (t *transition) aggregatedSubOrder(item *models.AggregatedOrderItem) *subOrder {
	sub := &subOrder{
		kind: enums.OrderKindAggregated,
		id:   item.ID,
		own: ownership{
			placedBy:  item.AggregatedOrder.ActorID,
			storeID:   item.StoreID,
			companyID: item.CompanyID,
		},
		dispatch:    &item.Dispatch,
		deliveredAt: &item.DeliveredAt,
	}
	for i := range item.Products {
		row := &item.Products[i]
		sub.lines = append(sub.lines, lineRef{
			id:   row.ID,
			line: &row.Line,
			save: func(ctx context.Context, columns ...string) error {
				return t.repo.SaveAggregatedProduct(ctx, row, columns...)
			},
		})
	}
	return sub
}

func (t *transition) aggregatedProcessing(ctx context.Context, item *models.AggregatedOrderItem, sub *subOrder, s Processing) (*UpdatedState, error) {
	if err := t.checkFlow(enums.FlowProcessing, s.Nested()); err != nil {
		return nil, err
	}
	to, err := processingTarget(s.OrderStatus, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowProcessing, string(to), sub.own); err != nil {
		return nil, err
	}
	switch to {
	case enums.OrderStatusCancelled:
		return t.openAggregatedCancel(ctx, item)
	case enums.OrderStatusReturn:
		return t.openAggregatedReturn(ctx, item, sub)
	}

	from := s.OrderStatus
	extra, err := t.advance(ctx, sub, to)
	if err != nil {
		return nil, err
	}
	columns := append(applyState(item, Processing{OrderStatus: to}), extra...)
	if err := t.saveAggregated(ctx, item, columns); err != nil {
		return nil, err
	}
	if err := t.aggregatedHistory(ctx, item, enums.FlowProcessing, statusPtr(string(from)), string(to)); err != nil {
		return nil, err
	}

	out := aggregatedResult(item, enums.FlowProcessing, string(from), string(to))
	return out, t.emitChange(ctx, out)
}

// openAggregatedCancel cancels the whole sub-order; aggregated lines are not
// cancelled one by one.
func (t *transition) openAggregatedCancel(ctx context.Context, item *models.AggregatedOrderItem) (*UpdatedState, error) {
	item.CancelReason = t.req.Payload.Reason
	next := Cancelled{CancelStatus: enums.CancelStatusPending}
	columns := append(applyState(item, next), "cancel_reason")
	if err := t.saveAggregated(ctx, item, columns); err != nil {
		return nil, err
	}
	if err := t.aggregatedHistory(ctx, item, enums.FlowCancel, nil, string(next.CancelStatus)); err != nil {
		return nil, err
	}

	out := aggregatedResult(item, enums.FlowCancel, "", string(next.CancelStatus))
	return out, t.emitChange(ctx, out)
}

func (t *transition) openAggregatedReturn(ctx context.Context, item *models.AggregatedOrderItem, sub *subOrder) (*UpdatedState, error) {
	ref, err := t.requestedLine(sub)
	if err != nil {
		return nil, err
	}
	quantity := t.req.Payload.Quantity
	if err := t.checkReturnable(ref.line, quantity); err != nil {
		return nil, err
	}

	var next AggregatedState = Returning{ReturnStatus: enums.ReturnStatusPending, Quantity: quantity}
	if quantity < ref.line.RemainingQuantity() {
		next = PartialReturn{ReturnStatus: enums.ReturnStatusPending, Quantity: quantity}
	}
	item.ReturnLineID = idPtr(ref.id)
	item.ReturnReason = t.req.Payload.Reason
	item.Pickup = models.Pickup{}
	item.Refund = models.Refund{}
	columns := append(applyState(item, next), "return_line_id", "return_reason")
	columns = append(columns, pickupColumns...)
	columns = append(columns, refundColumns...)
	if err := t.saveAggregated(ctx, item, columns); err != nil {
		return nil, err
	}
	if err := t.aggregatedHistory(ctx, item, enums.FlowReturn, nil, string(enums.ReturnStatusPending)); err != nil {
		return nil, err
	}

	out := aggregatedResult(item, enums.FlowReturn, "", string(enums.ReturnStatusPending))
	out.LineID = idPtr(ref.id)
	return out, t.emitChange(ctx, out)
}

func (t *transition) aggregatedCancel(ctx context.Context, item *models.AggregatedOrderItem, sub *subOrder, s Cancelled) (*UpdatedState, error) {
	if err := t.checkFlow(enums.FlowCancel, s.Nested()); err != nil {
		return nil, err
	}
	from := s.CancelStatus
	to, err := cancelTarget(from, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowCancel, string(to), sub.own); err != nil {
		return nil, err
	}

	var next AggregatedState = Cancelled{CancelStatus: to}
	var extra []string
	switch to {
	case enums.CancelStatusAccepted:
		for _, ref := range sub.lines {
			if ref.line.IsCancel {
				continue
			}
			ref.line.Status = enums.LineStatusCancelled
			ref.line.IsCancel = true
			if err := ref.save(ctx, "status", "is_cancel"); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel line")
			}
		}
	case enums.CancelStatusRejected:
		// Back to the processing workflow; the rejected status stays on the
		// row for the record.
		next = Processing{OrderStatus: item.OrderStatus}
		item.CancelStatus = &to
		extra = append(extra, "cancel_status")
	case enums.CancelStatusRefunded:
		for _, ref := range sub.lines {
			if !ref.line.IsCancel {
				continue
			}
			if err := t.restore(ctx, sub, ref, ref.line.Quantity-ref.line.ReturnQuantity, ReasonCancelRefund); err != nil {
				return nil, err
			}
		}
	}

	columns := append(applyState(item, next), extra...)
	if err := t.saveAggregated(ctx, item, columns); err != nil {
		return nil, err
	}
	if err := t.aggregatedHistory(ctx, item, enums.FlowCancel, statusPtr(string(from)), string(to)); err != nil {
		return nil, err
	}

	out := aggregatedResult(item, enums.FlowCancel, string(from), string(to))
	return out, t.emitChange(ctx, out)
}

func (t *transition) aggregatedReturn(ctx context.Context, item *models.AggregatedOrderItem, sub *subOrder, state AggregatedState, from enums.ReturnStatus) (*UpdatedState, error) {
	if err := t.checkFlow(enums.FlowReturn, string(from)); err != nil {
		return nil, err
	}
	to, err := returnTarget(from, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowReturn, string(to), sub.own); err != nil {
		return nil, err
	}
	ref, ok := sub.find(*item.ReturnLineID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "returned line missing from sub-order")
	}

	next := withReturnStatus(state, to)
	var extra []string
	switch to {
	case enums.ReturnStatusAccepted:
		if err := acceptReturn(ref.line, item.ReturnQuantity); err != nil {
			return nil, err
		}
		if err := ref.save(ctx, "return_quantity", "status"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "book returned quantity")
		}
	case enums.ReturnStatusRejected:
		next = Processing{OrderStatus: item.OrderStatus}
		item.ReturnStatus = &to
		extra = append(extra, "return_status")
	case enums.ReturnStatusPickUp:
		if err := requirePickup(t.req.Payload); err != nil {
			return nil, err
		}
		item.Pickup = t.pickup()
		extra = append(extra, pickupColumns...)
	case enums.ReturnStatusRefunded:
		refund, err := t.refund()
		if err != nil {
			return nil, err
		}
		item.Refund = refund
		extra = append(extra, refundColumns...)
		if err := t.restore(ctx, sub, ref, item.ReturnQuantity, ReasonReturnRefund); err != nil {
			return nil, err
		}
	}

	columns := append(applyState(item, next), extra...)
	if err := t.saveAggregated(ctx, item, columns); err != nil {
		return nil, err
	}
	if err := t.aggregatedHistory(ctx, item, enums.FlowReturn, statusPtr(string(from)), string(to)); err != nil {
		return nil, err
	}

	out := aggregatedResult(item, enums.FlowReturn, string(from), string(to))
	out.LineID = idPtr(ref.id)
	return out, t.emitChange(ctx, out)
}

func (t *transition) saveAggregated(ctx context.Context, item *models.AggregatedOrderItem, columns []string) error {
	if err := t.repo.SaveAggregatedItem(ctx, item, columns...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update aggregated sub-order")
	}
	return nil
}

func (t *transition) aggregatedHistory(ctx context.Context, item *models.AggregatedOrderItem, machine enums.Flow, from *string, to string) error {
	if err := t.repo.AppendAggregatedHistory(ctx, &models.AggregatedOrderStatusHistory{
		ID:                    uuid.New(),
		AggregatedOrderItemID: item.ID,
		Machine:               machine,
		OrderState:            item.OrderState,
		FromStatus:            from,
		ToStatus:              to,
		ChangedBy:             t.actor.ID,
		ActorRole:             t.actor.Role,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append aggregated history")
	}
	return nil
}

func aggregatedResult(item *models.AggregatedOrderItem, machine enums.Flow, from, to string) *UpdatedState {
	state := item.OrderState
	return &UpdatedState{
		Kind:           enums.OrderKindAggregated,
		SubOrderID:     item.ID,
		Machine:        machine,
		From:           from,
		To:             to,
		OrderStatus:    item.OrderStatus,
		OrderState:     &state,
		CancelStatus:   item.CancelStatus,
		ReturnStatus:   item.ReturnStatus,
		ReturnQuantity: item.ReturnQuantity,
	}
}
