package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/sweettreats-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/sweettreats-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/sweettreats-backend/api/controllers/orders"
	"github.com/angelmondragon/sweettreats-backend/api/middleware"
	"github.com/angelmondragon/sweettreats-backend/api/responses"
	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/angelmondragon/sweettreats-backend/internal/orders"
	"github.com/angelmondragon/sweettreats-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
	"github.com/angelmondragon/sweettreats-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Idempotency and Gatherer
// are optional; Pingers lists extra readiness checks by name.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Carts       *cart.Registry
	Orders      orders.Service
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Pingers     map[string]controllers.Pinger
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	var (
		stores  cartcontrollers.StoreResolver
		storage controllers.Pinger
	)
	if d.Carts != nil {
		stores, storage = d.Carts, d.Carts
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, storage, d.Pingers))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.CartScope(logg, cfg.Cart.DefaultScope),
			middleware.Idempotency(d.Idempotency, cfg.Cart.IdempotencyTTL, logg),
		)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(stores, logg))
			r.Delete("/", cartcontrollers.CartClear(stores, logg))
			r.Get("/validate", cartcontrollers.CartValidate(stores, logg))
			r.Post("/items", cartcontrollers.CartAddItem(stores, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(stores, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(stores, logg))
			r.With(middleware.RequireUser(logg)).Post("/checkout", cartcontrollers.CartCheckout(stores, d.Orders, logg))
		})

		r.With(middleware.RequireUser(logg)).Get("/orders", ordercontrollers.List(d.Orders, logg))
	})

	return r
}
