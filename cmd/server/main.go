package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hajarsalhi/book-store-sub000/internal/cache"
	"github.com/hajarsalhi/book-store-sub000/internal/cart"
	"github.com/hajarsalhi/book-store-sub000/internal/checkout"
	"github.com/hajarsalhi/book-store-sub000/internal/checkout/repository"
	"github.com/hajarsalhi/book-store-sub000/internal/client"
	h "github.com/hajarsalhi/book-store-sub000/internal/http"
	"github.com/hajarsalhi/book-store-sub000/internal/pricing"
	"github.com/hajarsalhi/book-store-sub000/internal/publisher"
)

type Config struct {
	HTTPPort string

	MongoURI    string
	MongoDBName string
	RedisAddr   string
	RedisPass   string

	PostgresHost      string
	PostgresPort      int
	PostgresUser      string
	PostgresPassword  string
	PostgresDBName    string
	MigrationsDirPath string
	KafkaBrokers      []string

	CatalogServiceURL string
	CouponServiceURL  string
	LoyaltyServiceURL string
	OrderServiceURL   string
	LibraryServiceURL string

	RequestTimeout  time.Duration
	ClientTimeout   time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "cartdb"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),

		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:      getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDBName:    getEnv("POSTGRES_DB", "checkoutdb"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/checkout/repository/migrations"),
		KafkaBrokers:      []string{getEnv("KAFKA_BROKER", "localhost:9092")},

		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8081"),
		CouponServiceURL:  getEnv("COUPON_SERVICE_URL", "http://localhost:8082"),
		LoyaltyServiceURL: getEnv("LOYALTY_SERVICE_URL", "http://localhost:8083"),
		OrderServiceURL:   getEnv("ORDER_SERVICE_URL", "http://localhost:8084"),
		LibraryServiceURL: getEnv("LIBRARY_SERVICE_URL", "http://localhost:8085"),

		RequestTimeout:  30 * time.Second,
		ClientTimeout:   5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Cart storage: MongoDB is durable truth, Redis the read cache.
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cart.CreateIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartService := cart.NewService(cartRepo, cache.NewRedisCache(redisClient))

	// Checkout sessions and outbox live in postgres.
	creds := &repository.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}
	checkoutRepo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer checkoutRepo.Close()
	if err := checkoutRepo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s:%d", cfg.PostgresHost, cfg.PostgresPort)

	// Collaborator clients.
	catalog := client.NewCatalog(cfg.CatalogServiceURL, cfg.ClientTimeout)
	coupons := client.NewCouponValidator(cfg.CouponServiceURL, cfg.ClientTimeout)
	loyalty := client.NewLoyalty(cfg.LoyaltyServiceURL, cfg.ClientTimeout)
	orders := client.NewOrders(cfg.OrderServiceURL, cfg.ClientTimeout)
	library := client.NewLibrary(cfg.LibraryServiceURL, cfg.ClientTimeout)

	engine := pricing.NewEngine(coupons, loyalty)
	checkoutService := checkout.NewService(checkoutRepo, cartService, engine, orders, library)

	// Outbox poller pushes completed checkouts to Kafka and finishes
	// sessions that crashed mid unlock.
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	poller := publisher.NewOutboxPoller(checkoutRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	cartHandler := h.NewCartHandler(cartService, catalog, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{book_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{book_id}", cartHandler.RemoveItem)
			r.Get("/recommendations", cartHandler.Recommendations)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Checkout)
			r.Post("/quote", checkoutHandler.Quote)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
