package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/codedlook/storefront/internal/baseline"
	"github.com/codedlook/storefront/internal/cache"
	"github.com/codedlook/storefront/internal/cart"
	"github.com/codedlook/storefront/internal/catalog"
	"github.com/codedlook/storefront/internal/domain"
	h "github.com/codedlook/storefront/internal/http"
	"github.com/codedlook/storefront/internal/orders"
	"github.com/codedlook/storefront/internal/poller"
	"github.com/codedlook/storefront/internal/remote"
	"github.com/codedlook/storefront/internal/store"
)

type Config struct {
	HTTPPort        string
	DBPath          string
	MigrationsPath  string
	BaselinePaths   []string
	RemoteURL       string
	RemoteAPIKey    string
	RedisAddr       string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "storefront.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/store/migrations"),
		BaselinePaths:   splitPaths(getEnv("BASELINE_PATHS", "js/items.json,items.json")),
		RemoteURL:       getEnv("REMOTE_URL", ""),
		RemoteAPIKey:    getEnv("REMOTE_API_KEY", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		PollInterval:    5 * time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(p); t != "" {
			paths = append(paths, t)
		}
	}
	return paths
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	localStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer localStore.Close()

	if err := localStore.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Local store ready at %s", cfg.DBPath)

	httpClient := &http.Client{Timeout: 10 * time.Second}
	baselineLoader := baseline.NewLoader(httpClient, cfg.BaselinePaths, localStore)

	var remoteClient *remote.Client
	if cfg.RemoteURL != "" {
		remoteClient = remote.NewClient(httpClient, cfg.RemoteURL, cfg.RemoteAPIKey)
		log.Printf("Remote store configured at %s", cfg.RemoteURL)
	} else {
		log.Println("No remote store configured, running local-only")
	}

	var catalogCache cache.CatalogCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Println("Redis ping succeeded")
		catalogCache = cache.NewRedisCache(redisClient)
	}

	engine := catalog.NewEngine(localStore, baselineLoader, remoteStore(remoteClient), catalogCache)
	defer engine.Close()

	if _, err := engine.LoadCatalog(ctx); err != nil {
		log.Printf("Initial catalog load failed: %v", err)
	}

	cartService := cart.NewService(localStore, engine)
	ordersService := orders.NewService(localStore, engine, remoteStore(remoteClient), engine)

	pollCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if remoteClient != nil {
		go poller.New(engine, cfg.PollInterval).Run(pollCtx)
	}

	catalogHandler := h.NewCatalogHandler(engine, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(ordersService, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Post("/", catalogHandler.Create)
			r.Post("/refresh", catalogHandler.Refresh)
			r.Put("/{id}", catalogHandler.Update)
			r.Delete("/{id}", catalogHandler.Delete)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", cartHandler.GetWishlist)
			r.Post("/{product_id}", cartHandler.ToggleWishlist)
		})
		r.Post("/checkout", ordersHandler.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.List)
			r.Delete("/", ordersHandler.ClearAll)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
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
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// remoteStore hands a nil-safe remote to components. With no remote
// configured everything degrades to local-only behavior.
func remoteStore(c *remote.Client) catalog.RemoteStore {
	if c == nil {
		return noRemote{}
	}
	return c
}

type noRemote struct{}

func (noRemote) Pull(context.Context) (*domain.Document, error) {
	return nil, remote.ErrUnavailable
}

func (noRemote) Replace(context.Context, *domain.Document) error {
	return remote.ErrUnavailable
}
