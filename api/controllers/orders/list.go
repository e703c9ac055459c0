package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fulfillment-engine/api/responses"
	"github.com/angelmondragon/fulfillment-engine/api/validators"
	"github.com/angelmondragon/fulfillment-engine/internal/lifecycle"
	internalorders "github.com/angelmondragon/fulfillment-engine/internal/orders"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/pagination"
)

// List returns one cursor page of the sub-orders visible to the actor.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := buildListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListSubOrders(r.Context(), actor, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func buildListFilter(r *http.Request) (internalorders.ListFilter, error) {
	var filter internalorders.ListFilter

	kind, err := validators.ParseQueryEnum(r, "kind", enums.ParseOrderKind)
	if err != nil {
		return filter, err
	}
	if kind != nil {
		filter.Kind = *kind
	}
	if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus); err != nil {
		return filter, err
	}
	if filter.StoreID, err = validators.ParseQueryUUID(r, "storeId"); err != nil {
		return filter, err
	}
	return filter, nil
}

// History returns the audit trail of one sub-order.
func History(engine lifecycle.Engine, kind enums.OrderKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle engine unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subOrderID, err := parseSubOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := engine.History(r.Context(), actor, kind, subOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": entries})
	}
}
