package lifecycle

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

// History returns every audit row of a sub-order, oldest first. Only the
// placer, the fulfiller and admins may read it.
func (e *engine) History(ctx context.Context, actor types.Actor, kind enums.OrderKind, subOrderID uuid.UUID) ([]HistoryEntry, error) {
	if err := actor.Validate(); err != nil {
		return nil, pkgerrors.ActorNotAuthorized(err.Error())
	}
	switch kind {
	case enums.OrderKindSimple:
		return e.simpleHistory(ctx, actor, subOrderID)
	case enums.OrderKindAggregated:
		return e.aggregatedHistory(ctx, actor, subOrderID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order kind")
	}
}

func (e *engine) simpleHistory(ctx context.Context, actor types.Actor, id uuid.UUID) ([]HistoryEntry, error) {
	item, err := e.repo.FindOrderItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "sub-order")
	}
	if item.Order == nil {
		return nil, pkgerrors.OrderNotFound()
	}
	own := ownership{placedBy: item.Order.CustomerID, storeID: item.StoreID, companyID: item.CompanyID}
	if !canView(actor, own) {
		return nil, pkgerrors.ActorNotAuthorized("sub-order is not visible to actor")
	}

	orderRows, err := e.repo.OrderHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	cancelRows, err := e.repo.CancelHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancel history")
	}
	returnRows, err := e.repo.ReturnHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return history")
	}

	out := make([]HistoryEntry, 0, len(orderRows)+len(cancelRows)+len(returnRows))
	for _, row := range orderRows {
		out = append(out, HistoryEntry{
			Machine:   enums.FlowProcessing,
			From:      row.FromStatus,
			To:        row.ToStatus,
			ChangedBy: row.ChangedBy,
			ActorRole: row.ActorRole,
			Note:      row.Note,
			CreatedAt: row.CreatedAt,
		})
	}
	for _, row := range cancelRows {
		out = append(out, HistoryEntry{
			Machine:   enums.FlowCancel,
			RequestID: idPtr(row.CancelOrderID),
			From:      row.FromStatus,
			To:        row.ToStatus,
			ChangedBy: row.ChangedBy,
			ActorRole: row.ActorRole,
			CreatedAt: row.CreatedAt,
		})
	}
	for _, row := range returnRows {
		out = append(out, HistoryEntry{
			Machine:   enums.FlowReturn,
			RequestID: idPtr(row.ReturnOrderID),
			From:      row.FromStatus,
			To:        row.ToStatus,
			ChangedBy: row.ChangedBy,
			ActorRole: row.ActorRole,
			CreatedAt: row.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (e *engine) aggregatedHistory(ctx context.Context, actor types.Actor, id uuid.UUID) ([]HistoryEntry, error) {
	item, err := e.repo.FindAggregatedItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "aggregated sub-order")
	}
	if item.AggregatedOrder == nil {
		return nil, pkgerrors.OrderNotFound()
	}
	own := ownership{placedBy: item.AggregatedOrder.ActorID, storeID: item.StoreID, companyID: item.CompanyID}
	if !canView(actor, own) {
		return nil, pkgerrors.ActorNotAuthorized("sub-order is not visible to actor")
	}

	rows, err := e.repo.AggregatedHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load aggregated history")
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		state := row.OrderState
		out = append(out, HistoryEntry{
			Machine:    row.Machine,
			OrderState: &state,
			From:       row.FromStatus,
			To:         row.ToStatus,
			ChangedBy:  row.ChangedBy,
			ActorRole:  row.ActorRole,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
