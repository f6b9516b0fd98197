package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopmandi/shopmandi-backend/api/controllers"
	"github.com/shopmandi/shopmandi-backend/api/middleware"
	"github.com/shopmandi/shopmandi-backend/internal/admin"
	"github.com/shopmandi/shopmandi-backend/internal/auth"
	"github.com/shopmandi/shopmandi-backend/internal/cart"
	"github.com/shopmandi/shopmandi-backend/internal/notifications"
	"github.com/shopmandi/shopmandi-backend/internal/orders"
	product "github.com/shopmandi/shopmandi-backend/internal/products"
	"github.com/shopmandi/shopmandi-backend/internal/uploads"
	"github.com/shopmandi/shopmandi-backend/internal/users"
	"github.com/shopmandi/shopmandi-backend/internal/wishlist"
	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/metrics"
	"github.com/shopmandi/shopmandi-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Optional fields (gcs,
// metrics registry) may be nil and the related routes degrade gracefully.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB      controllers.Pinger
	Redis   *redis.Client
	Storage controllers.Pinger

	MetricsRegistry *prometheus.Registry
	HTTPMetrics     *metrics.HTTPMetrics

	UserChecker middleware.UserChecker

	AuthService     auth.Service
	RegisterService auth.RegisterService
	UsersService    users.Service
	ProductService  product.Service
	UploadService   *uploads.Service
	CartService     cart.Service
	WishlistService wishlist.Service
	OrdersService   orders.Service
	Notifications   notifications.Service
	AdminService    admin.Service
}

// NewRouter wires middleware and controllers into the full API surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	readyDeps := map[string]controllers.Pinger{
		"database": deps.DB,
		"storage":  deps.Storage,
	}
	if deps.Redis != nil {
		readyDeps["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyDeps, logg))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	// Locally stored images are served straight from disk.
	publicPath := cfg.Uploads.PublicPath
	r.Handle(publicPath+"/*", http.StripPrefix(publicPath+"/", http.FileServer(http.Dir(cfg.Uploads.LocalDir))))

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.ProductService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.UserChecker, logg))

			r.With(middleware.RequireRole(logg, enums.UserRoleSeller)).Group(func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(deps.ProductService, logg))
				r.Get("/seller/mine", controllers.ListMyProducts(deps.ProductService, logg))
			})

			r.With(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Put("/{id}", controllers.UpdateProduct(deps.ProductService, logg))
				r.Delete("/{id}", controllers.DeleteProduct(deps.ProductService, logg))
			})

			r.Post("/{id}/reviews", controllers.AddProductReview(deps.ProductService, deps.UsersService, logg))
		})

		r.Get("/{id}", controllers.GetProduct(deps.ProductService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.UserChecker, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", controllers.GetProfile(deps.UsersService, logg))
			r.Put("/profile", controllers.UpdateProfile(deps.UsersService, logg))

			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Get("/", controllers.ListUsers(deps.UsersService, logg))
				r.Get("/{id}", controllers.GetUser(deps.UsersService, logg))
				r.Put("/{id}", controllers.UpdateUser(deps.UsersService, logg))
				r.Delete("/{id}", controllers.DeleteUser(deps.UsersService, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.UserRoleSeller)).
			Post("/uploads", controllers.UploadImage(deps.UploadService, cfg.Uploads, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, logg))
			r.Post("/", controllers.AddCartItem(deps.CartService, logg))
			r.Delete("/{productId}", controllers.RemoveCartItem(deps.CartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.GetWishlist(deps.WishlistService, logg))
			r.Post("/", controllers.AddWishlistItem(deps.WishlistService, logg))
			r.Delete("/{productId}", controllers.RemoveWishlistItem(deps.WishlistService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.OrdersService, logg))
			r.Get("/myorders", controllers.ListMyOrders(deps.OrdersService, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleSeller)).
				Get("/seller/orders", controllers.ListSellerOrders(deps.OrdersService, logg))
			r.Get("/{id}", controllers.GetOrder(deps.OrdersService, logg))

			r.Route("/{orderId}/items/{itemIndex}", func(r chi.Router) {
				r.Put("/confirm", controllers.TransitionLineItem(deps.OrdersService, enums.LineItemStatusConfirmed, logg))
				r.Put("/ship", controllers.TransitionLineItem(deps.OrdersService, enums.LineItemStatusShipped, logg))
				r.Put("/deliver", controllers.TransitionLineItem(deps.OrdersService, enums.LineItemStatusDelivered, logg))
				r.Put("/cancel", controllers.TransitionLineItem(deps.OrdersService, enums.LineItemStatusCancelled, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleSeller))
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread/count", controllers.UnreadNotificationCount(deps.Notifications, logg))
			r.Put("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Put("/all/read", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Get("/stats", controllers.AdminStats(deps.AdminService, logg))
			r.Get("/orders", controllers.AdminListOrders(deps.OrdersService, logg))
			r.Put("/orders/{id}", controllers.AdminUpdateOrder(deps.OrdersService, logg))
			r.Get("/users", controllers.ListUsers(deps.UsersService, logg))
			r.Delete("/users/{id}", controllers.DeleteUser(deps.UsersService, logg))
			r.Get("/products", controllers.ListProducts(deps.ProductService, logg))
			r.Delete("/products/{id}", controllers.DeleteProduct(deps.ProductService, logg))
		})
	})

	return r
}
