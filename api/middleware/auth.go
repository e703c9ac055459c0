package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fulfillment-engine/api/responses"
	pkgAuth "github.com/angelmondragon/fulfillment-engine/pkg/auth"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor
// it was minted for.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			if err := actor.Validate(); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor"))
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				companyID := ""
				if actor.CompanyID != nil {
					companyID = actor.CompanyID.String()
				}
				ctx = logg.WithActor(ctx, actor.ID.String(), string(actor.Role), companyID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
