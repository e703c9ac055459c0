package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fulfillment-engine/api/controllers"
	ordercontrollers "github.com/angelmondragon/fulfillment-engine/api/controllers/orders"
	"github.com/angelmondragon/fulfillment-engine/api/middleware"
	"github.com/angelmondragon/fulfillment-engine/internal/lifecycle"
	"github.com/angelmondragon/fulfillment-engine/internal/orders"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	"github.com/angelmondragon/fulfillment-engine/pkg/db"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/redis"
)

type redisClient interface {
	redis.Pinger
	redis.IdempotencyStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	dbP db.Pinger,
	redisClient redisClient,
	ordersSvc orders.Service,
	engine lifecycle.Engine,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.Dependency{Name: "postgres", Ping: dbP.Ping},
			controllers.Dependency{Name: "redis", Ping: redisClient.Ping},
		))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Fulfillment.IdempotencyTTL, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Post("/", ordercontrollers.Place(ordersSvc, logg))
			r.Post("/{subOrderId}/status", ordercontrollers.ChangeStatus(engine, enums.OrderKindSimple, logg))
			r.Get("/{subOrderId}/history", ordercontrollers.History(engine, enums.OrderKindSimple, logg))
		})
		r.Route("/aggregated-orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.PlaceAggregated(ordersSvc, logg))
			r.Post("/{subOrderId}/status", ordercontrollers.ChangeStatus(engine, enums.OrderKindAggregated, logg))
			r.Get("/{subOrderId}/history", ordercontrollers.History(engine, enums.OrderKindAggregated, logg))
		})
	})

	return r
}
