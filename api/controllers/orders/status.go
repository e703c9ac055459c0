package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fulfillment-engine/api/responses"
	"github.com/angelmondragon/fulfillment-engine/api/validators"
	"github.com/angelmondragon/fulfillment-engine/internal/lifecycle"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
)

const maxFreeTextLen = 1000

type changeStatusRequest struct {
	Target  string            `json:"target" validate:"required"`
	Payload lifecycle.Payload `json:"payload"`
}

// ChangeStatus moves one sub-order of the given kind to the requested target.
func ChangeStatus(engine lifecycle.Engine, kind enums.OrderKind, logg *logger.Logger) http.HandlerFunc {
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

		var body changeStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p := &body.Payload
		validators.SanitizeFields(maxFreeTextLen, p.Reason, p.Note, p.RefundComment, p.TrackID, p.PickUpTrackID)

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSubOrder(ctx, string(kind), subOrderID.String())
		}

		state, err := engine.Change(ctx, actor, lifecycle.ChangeRequest{
			Kind:       kind,
			SubOrderID: subOrderID,
			Target:     strings.TrimSpace(body.Target),
			Payload:    body.Payload,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}
