package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopmandi/shopmandi-backend/api/routes"
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
	"github.com/shopmandi/shopmandi-backend/pkg/db"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/metrics"
	"github.com/shopmandi/shopmandi-backend/pkg/migrate"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox"
	"github.com/shopmandi/shopmandi-backend/pkg/redis"
	"github.com/shopmandi/shopmandi-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Remote image storage is optional; without a bucket uploads land on disk.
	var gcsClient *gcs.Client
	var remoteStore gcs.Uploader
	var storagePinger gcs.Pinger
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		remoteStore = gcsClient
		storagePinger = gcsClient
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  usersRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	productService, err := product.NewService(productRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	uploadService := uploads.NewService(remoteStore, cfg.Uploads, logg)

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   ordersRepo,
		Tx:     dbClient,
		Outbox: outboxService,
		Users:  usersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(usersRepo, productRepo, ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Storage:         storagePinger,
		MetricsRegistry: registry,
		HTTPMetrics:     httpMetrics,
		UserChecker:     usersRepo,
		AuthService:     authService,
		RegisterService: registerService,
		UsersService:    usersService,
		ProductService:  productService,
		UploadService:   uploadService,
		CartService:     cartService,
		WishlistService: wishlistService,
		OrdersService:   ordersService,
		Notifications:   notificationsService,
		AdminService:    adminService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
