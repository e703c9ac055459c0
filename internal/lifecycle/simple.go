package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/db"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

const (
	openCancelIndex = "uq_cancel_orders_open_line"
	openReturnIndex = "uq_return_orders_open_line"
)

// changeSimple routes a customer sub-order change to the machine named by
// payload.flow. Cancels and returns live in satellite request rows.
func (t *transition) changeSimple(ctx context.Context) (*UpdatedState, error) {
	item, err := t.repo.FindOrderItem(ctx, t.req.SubOrderID)
	if err != nil {
		return nil, notFound(err, "sub-order")
	}
	if item.Order == nil {
		return nil, pkgerrors.OrderNotFound()
	}
	sub := t.simpleSubOrder(item)

	switch t.req.Payload.Flow {
	case enums.FlowCancel:
		return t.moveSimpleCancel(ctx, item, sub)
	case enums.FlowReturn:
		return t.moveSimpleReturn(ctx, item, sub)
	}

	to, err := processingTarget(item.OrderStatus, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowProcessing, string(to), sub.own); err != nil {
		return nil, err
	}
	switch to {
	case enums.OrderStatusCancelled:
		return t.openSimpleCancel(ctx, item, sub)
	case enums.OrderStatusReturn:
		return t.openSimpleReturn(ctx, item, sub)
	}

	pending, err := t.repo.PendingCancels(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending cancel requests")
	}
	if len(pending) > 0 {
		if to != enums.OrderStatusRejected {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancel request pending on sub-order").
				WithDetails(map[string]any{"requestId": pending[0].ID.String()})
		}
		// the rejection restock below covers these lines
		if err := t.closeCancels(ctx, pending); err != nil {
			return nil, err
		}
	}

	from := item.OrderStatus
	columns, err := t.advance(ctx, sub, to)
	if err != nil {
		return nil, err
	}
	item.OrderStatus = to
	if err := t.repo.SaveOrderItem(ctx, item, append([]string{"order_status"}, columns...)...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-order status")
	}
	if err := t.repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
		ID:          uuid.New(),
		OrderItemID: item.ID,
		FromStatus:  statusPtr(string(from)),
		ToStatus:    string(to),
		ChangedBy:   t.actor.ID,
		ActorRole:   t.actor.Role,
		Note:        t.req.Payload.Reason,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	out := simpleResult(item, enums.FlowProcessing, string(from), string(to))
	return out, t.emitChange(ctx, out)
}

func (t *transition) simpleSubOrder(item *models.OrderItem) *subOrder {
	sub := &subOrder{
		kind: enums.OrderKindSimple,
		id:   item.ID,
		own: ownership{
			placedBy:  item.Order.CustomerID,
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
				return t.repo.SaveOrderProduct(ctx, row, columns...)
			},
		})
	}
	return sub
}

func (t *transition) openSimpleCancel(ctx context.Context, item *models.OrderItem, sub *subOrder) (*UpdatedState, error) {
	ref, err := t.requestedLine(sub)
	if err != nil {
		return nil, err
	}
	if ref.line.IsCancel {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "line already cancelled")
	}
	if err := t.guardOpenRequests(ctx, item.ID, ref.id); err != nil {
		return nil, err
	}

	req := &models.CancelOrder{
		ID:             uuid.New(),
		OrderItemID:    item.ID,
		OrderProductID: ref.id,
		RequestedBy:    t.actor.ID,
		Quantity:       ref.line.RemainingQuantity(),
		Reason:         t.req.Payload.Reason,
		Status:         enums.CancelStatusPending,
	}
	if err := t.repo.CreateCancel(ctx, req); err != nil {
		if db.IsUniqueViolation(err, openCancelIndex) {
			return nil, pkgerrors.DuplicateRequest("cancel")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cancel request")
	}
	if err := t.cancelHistory(ctx, req, nil); err != nil {
		return nil, err
	}

	out := simpleResult(item, enums.FlowCancel, "", string(req.Status))
	out.RequestID = idPtr(req.ID)
	out.LineID = idPtr(ref.id)
	out.CancelStatus = &req.Status
	return out, t.emitChange(ctx, out)
}

func (t *transition) moveSimpleCancel(ctx context.Context, item *models.OrderItem, sub *subOrder) (*UpdatedState, error) {
	req, err := t.findCancel(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	from := req.Status
	to, err := cancelTarget(from, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowCancel, string(to), sub.own); err != nil {
		return nil, err
	}
	ref, ok := sub.find(req.OrderProductID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancel request line missing from sub-order")
	}

	switch to {
	case enums.CancelStatusAccepted:
		ref.line.Status = enums.LineStatusCancelled
		ref.line.IsCancel = true
		if err := ref.save(ctx, "status", "is_cancel"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel line")
		}
	case enums.CancelStatusRefunded:
		if err := t.restore(ctx, sub, ref, req.Quantity, ReasonCancelRefund); err != nil {
			return nil, err
		}
	}

	req.Status = to
	if err := t.repo.SaveCancel(ctx, req, "order_status"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cancel request")
	}
	if err := t.cancelHistory(ctx, req, statusPtr(string(from))); err != nil {
		return nil, err
	}

	out := simpleResult(item, enums.FlowCancel, string(from), string(to))
	out.RequestID = idPtr(req.ID)
	out.LineID = idPtr(ref.id)
	out.CancelStatus = &req.Status
	return out, t.emitChange(ctx, out)
}

func (t *transition) openSimpleReturn(ctx context.Context, item *models.OrderItem, sub *subOrder) (*UpdatedState, error) {
	ref, err := t.requestedLine(sub)
	if err != nil {
		return nil, err
	}
	quantity := t.req.Payload.Quantity
	if err := t.checkReturnable(ref.line, quantity); err != nil {
		return nil, err
	}
	if err := t.guardOpenRequests(ctx, item.ID, ref.id); err != nil {
		return nil, err
	}

	req := &models.ReturnOrder{
		ID:             uuid.New(),
		OrderItemID:    item.ID,
		OrderProductID: ref.id,
		RequestedBy:    t.actor.ID,
		Quantity:       quantity,
		Reason:         t.req.Payload.Reason,
		Status:         enums.ReturnStatusPending,
	}
	if err := t.repo.CreateReturn(ctx, req); err != nil {
		if db.IsUniqueViolation(err, openReturnIndex) {
			return nil, pkgerrors.DuplicateRequest("return")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
	}
	if err := t.returnHistory(ctx, req, nil); err != nil {
		return nil, err
	}

	out := simpleResult(item, enums.FlowReturn, "", string(req.Status))
	out.RequestID = idPtr(req.ID)
	out.LineID = idPtr(ref.id)
	out.ReturnStatus = &req.Status
	out.ReturnQuantity = req.Quantity
	return out, t.emitChange(ctx, out)
}

func (t *transition) moveSimpleReturn(ctx context.Context, item *models.OrderItem, sub *subOrder) (*UpdatedState, error) {
	req, err := t.findReturn(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	from := req.Status
	to, err := returnTarget(from, t.req.Target)
	if err != nil {
		return nil, err
	}
	if err := authorize(t.actor, enums.FlowReturn, string(to), sub.own); err != nil {
		return nil, err
	}
	ref, ok := sub.find(req.OrderProductID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return request line missing from sub-order")
	}

	columns := []string{"order_status"}
	switch to {
	case enums.ReturnStatusAccepted:
		if err := acceptReturn(ref.line, req.Quantity); err != nil {
			return nil, err
		}
		if err := ref.save(ctx, "return_quantity", "status"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "book returned quantity")
		}
	case enums.ReturnStatusPickUp:
		if err := requirePickup(t.req.Payload); err != nil {
			return nil, err
		}
		req.Pickup = t.pickup()
		columns = append(columns, pickupColumns...)
	case enums.ReturnStatusRefunded:
		refund, err := t.refund()
		if err != nil {
			return nil, err
		}
		req.Refund = refund
		columns = append(columns, refundColumns...)
		if err := t.restore(ctx, sub, ref, req.Quantity, ReasonReturnRefund); err != nil {
			return nil, err
		}
	}

	req.Status = to
	if err := t.repo.SaveReturn(ctx, req, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return request")
	}
	if err := t.returnHistory(ctx, req, statusPtr(string(from))); err != nil {
		return nil, err
	}

	out := simpleResult(item, enums.FlowReturn, string(from), string(to))
	out.RequestID = idPtr(req.ID)
	out.LineID = idPtr(ref.id)
	out.ReturnStatus = &req.Status
	out.ReturnQuantity = req.Quantity
	return out, t.emitChange(ctx, out)
}

// closeCancels rejects undecided cancel requests when their sub-order is
// rejected as a whole.
func (t *transition) closeCancels(ctx context.Context, reqs []models.CancelOrder) error {
	for i := range reqs {
		req := &reqs[i]
		from := string(req.Status)
		req.Status = enums.CancelStatusRejected
		if err := t.repo.SaveCancel(ctx, req, "order_status"); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cancel request")
		}
		if err := t.cancelHistory(ctx, req, &from); err != nil {
			return err
		}
	}
	return nil
}

// guardOpenRequests allows at most one open cancel or return per line.
func (t *transition) guardOpenRequests(ctx context.Context, orderItemID, lineID uuid.UUID) error {
	open, err := t.repo.HasOpenCancel(ctx, orderItemID, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open cancel requests")
	}
	if open {
		return pkgerrors.DuplicateRequest("cancel")
	}
	open, err = t.repo.HasOpenReturn(ctx, orderItemID, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open return requests")
	}
	if open {
		return pkgerrors.DuplicateRequest("return")
	}
	return nil
}

// findCancel loads the request named by requestId, or the latest one of lineId.
func (t *transition) findCancel(ctx context.Context, orderItemID uuid.UUID) (*models.CancelOrder, error) {
	p := t.req.Payload
	var (
		req *models.CancelOrder
		err error
	)
	switch {
	case p.RequestID != nil:
		req, err = t.repo.FindCancel(ctx, *p.RequestID)
	case p.LineID != nil:
		req, err = t.repo.LatestCancel(ctx, orderItemID, *p.LineID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requestId or lineId required")
	}
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cancel request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancel request")
	}
	if req.OrderItemID != orderItemID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cancel request not found")
	}
	return req, nil
}

func (t *transition) findReturn(ctx context.Context, orderItemID uuid.UUID) (*models.ReturnOrder, error) {
	p := t.req.Payload
	var (
		req *models.ReturnOrder
		err error
	)
	switch {
	case p.RequestID != nil:
		req, err = t.repo.FindReturn(ctx, *p.RequestID)
	case p.LineID != nil:
		req, err = t.repo.LatestReturn(ctx, orderItemID, *p.LineID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requestId or lineId required")
	}
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}
	if req.OrderItemID != orderItemID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	return req, nil
}

func (t *transition) cancelHistory(ctx context.Context, req *models.CancelOrder, from *string) error {
	if err := t.repo.AppendCancelHistory(ctx, &models.CancelOrderStatusHistory{
		ID:            uuid.New(),
		CancelOrderID: req.ID,
		OrderItemID:   req.OrderItemID,
		FromStatus:    from,
		ToStatus:      string(req.Status),
		ChangedBy:     t.actor.ID,
		ActorRole:     t.actor.Role,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cancel history")
	}
	return nil
}

func (t *transition) returnHistory(ctx context.Context, req *models.ReturnOrder, from *string) error {
	if err := t.repo.AppendReturnHistory(ctx, &models.ReturnOrderStatusHistory{
		ID:            uuid.New(),
		ReturnOrderID: req.ID,
		OrderItemID:   req.OrderItemID,
		FromStatus:    from,
		ToStatus:      string(req.Status),
		ChangedBy:     t.actor.ID,
		ActorRole:     t.actor.Role,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append return history")
	}
	return nil
}

func simpleResult(item *models.OrderItem, machine enums.Flow, from, to string) *UpdatedState {
	return &UpdatedState{
		Kind:        enums.OrderKindSimple,
		SubOrderID:  item.ID,
		Machine:     machine,
		From:        from,
		To:          to,
		OrderStatus: item.OrderStatus,
	}
}
