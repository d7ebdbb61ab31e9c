package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadline-co/storefront-backend/api/controllers"
	webhookcontrollers "github.com/threadline-co/storefront-backend/api/controllers/webhooks"
	"github.com/threadline-co/storefront-backend/api/middleware"
	checkoutsvc "github.com/threadline-co/storefront-backend/internal/checkout"
	"github.com/threadline-co/storefront-backend/internal/orders"
	"github.com/threadline-co/storefront-backend/internal/reconcile"
	"github.com/threadline-co/storefront-backend/pkg/config"
	"github.com/threadline-co/storefront-backend/pkg/db/models"
	"github.com/threadline-co/storefront-backend/pkg/logger"
	"github.com/threadline-co/storefront-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type completionProcessor interface {
	Process(ctx context.Context, rawPayload []byte, signatureHeader string) (reconcile.Outcome, error)
}

type checkoutCreator interface {
	CreateSession(ctx context.Context, req checkoutsvc.SessionRequest) (checkoutsvc.Session, error)
}

type inventoryAdmin interface {
	Restock(ctx context.Context, sku string, qty int) (models.InventoryItem, error)
	LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error)
}

type orderAdmin interface {
	List(ctx context.Context, statusFilter string, limit, offset int) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatuses(ctx context.Context, id uuid.UUID, update orders.StatusUpdate) (*models.Order, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger pinger,
	redisClient *redis.Client,
	reconciler completionProcessor,
	checkoutService checkoutCreator,
	orderService orderAdmin,
	inventoryService inventoryAdmin,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		int(cfg.RateLimit.CheckoutIPLimit),
	)

	var cachePinger pinger
	if redisClient != nil {
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, cachePinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/completion", webhookcontrollers.Completion(reconciler, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
			Post("/session", controllers.CreateCheckoutSession(checkoutService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", controllers.AdminListOrders(orderService, logg))
		r.Get("/{orderId}", controllers.AdminOrderDetail(orderService, logg))
		r.Patch("/{orderId}", controllers.AdminUpdateOrderStatus(orderService, logg))
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/low-stock", controllers.InventoryLowStock(inventoryService, logg))
		r.Post("/{sku}/restock", controllers.InventoryRestock(inventoryService, logg))
	})

	return r
}
