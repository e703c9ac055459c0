package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fulfillment-engine/api/responses"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Dependency is a named backing service checked by the readiness probe.
type Dependency struct {
	Name string
	Ping func(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fulfillment-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and fails on the first one that is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fulfillment-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for _, dep := range deps {
			if dep.Ping == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.Name+" unavailable").
					WithDetails(map[string]any{"dependency": dep.Name}))
				return
			}
			checks[dep.Name] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
