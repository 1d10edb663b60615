package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/littlelemonhq/littlelemon-backend/api/controllers"
	"github.com/littlelemonhq/littlelemon-backend/api/middleware"
	authsvc "github.com/littlelemonhq/littlelemon-backend/internal/auth"
	cartsvc "github.com/littlelemonhq/littlelemon-backend/internal/cart"
	"github.com/littlelemonhq/littlelemon-backend/internal/catalog"
	ordersvc "github.com/littlelemonhq/littlelemon-backend/internal/orders"
	"github.com/littlelemonhq/littlelemon-backend/internal/roles"
	"github.com/littlelemonhq/littlelemon-backend/pkg/config"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	"github.com/littlelemonhq/littlelemon-backend/pkg/logger"
	"github.com/littlelemonhq/littlelemon-backend/pkg/metrics"
	"github.com/littlelemonhq/littlelemon-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	dbP db.Pinger,
	redisClient *redis.Client,
	rolesService *roles.Service,
	authService *authsvc.Service,
	catalogService *catalog.Service,
	cartService *cartsvc.Service,
	ordersService *ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	menuThrottle := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		menuThrottle = middleware.MenuRateLimit(cfg.RateLimit, redisClient, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(authService, logg))
			r.Post("/login", controllers.AuthLogin(authService, logg))
		})

		// Public catalog reads. OptionalAuth lets the rate limiter key on the
		// user when a token is present and fall back to the client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/category", controllers.CategoryList(catalogService, logg))
			r.With(menuThrottle).Get("/menu-items", controllers.MenuItemList(catalogService, logg))
			r.Get("/menu-items/{itemId}", controllers.MenuItemDetail(catalogService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.ResolveRole(rolesService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleManager, logg))

				r.Post("/category", controllers.CategoryCreate(catalogService, logg))
				r.Post("/menu-items", controllers.MenuItemCreate(catalogService, logg))
				r.Put("/menu-items/{itemId}", controllers.MenuItemReplace(catalogService, logg))
				r.Patch("/menu-items/{itemId}", controllers.MenuItemPatch(catalogService, logg))
				r.Delete("/menu-items/{itemId}", controllers.MenuItemDelete(catalogService, logg))

				r.Route("/groups/manager/users", func(r chi.Router) {
					r.Get("/", controllers.GroupMemberList(rolesService, enums.RoleManager, logg))
					r.Post("/", controllers.GroupMemberAdd(rolesService, enums.RoleManager, logg))
					r.Delete("/{userId}", controllers.GroupMemberRemove(rolesService, enums.RoleManager, logg))
				})
				r.Route("/groups/delivery-crew/users", func(r chi.Router) {
					r.Get("/", controllers.GroupMemberList(rolesService, enums.RoleDeliveryCrew, logg))
					r.Post("/", controllers.GroupMemberAdd(rolesService, enums.RoleDeliveryCrew, logg))
					r.Delete("/{userId}", controllers.GroupMemberRemove(rolesService, enums.RoleDeliveryCrew, logg))
				})
			})

			r.Route("/cart/menu-items", func(r chi.Router) {
				r.Get("/", controllers.CartView(cartService, logg))
				r.Post("/", controllers.CartAdd(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.Post("/", controllers.OrderCheckout(ordersService, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", controllers.OrderDetail(ordersService, logg))
					r.Put("/", controllers.OrderReplace(ordersService, logg))
					r.Patch("/", controllers.OrderPatch(ordersService, logg))
					r.Delete("/", controllers.OrderDelete(ordersService, logg))
				})
			})
		})
	})

	return r
}
