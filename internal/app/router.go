// internal/app/router.go
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/logger"
	"storefront/internal/membership"
	"storefront/internal/order"
	"storefront/internal/query"
)

// Services holds every use-case service the HTTP surface exposes.
type Services struct {
	Catalog    catalog.Service
	Membership membership.Service
	Orders     order.Service
	Query      query.Service
}

// NewServices builds the services over one storage.
func NewServices(cfg config.Config, log *logger.Logger, storage *Storage) (Services, error) {
	orders, err := order.NewService(storage.UnitOfWork, log.With("component", "order"), cfg.Orders.SpendingReversal)
	if err != nil {
		return Services{}, err
	}
	members, err := membership.NewService(storage.UnitOfWork, log.With("component", "membership"))
	if err != nil {
		return Services{}, err
	}
	return Services{
		Catalog:    catalog.NewService(storage.UnitOfWork, log.With("component", "catalog")),
		Membership: members,
		Orders:     orders,
		Query: query.NewService(storage.Queries, query.Defaults{
			Fetch:      cfg.Query.FetchStrategy,
			Projection: cfg.Query.ProjectionStrategy,
		}),
	}, nil
}

func NewRouter(cfg config.HTTPConfig, log *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpx.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		catalog.NewHandler(svc.Catalog, log).Routes(r)
		membership.NewHandler(svc.Membership, log).Routes(r)
		order.NewHandler(svc.Orders, log).Routes(r)
		query.NewHandler(svc.Query, log).Routes(r)
	})
	return r
}
