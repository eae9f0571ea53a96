package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goalline/academy-server/internal/api"
	"github.com/goalline/academy-server/internal/auth"
	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
	"github.com/goalline/academy-server/internal/outbox"
	"github.com/goalline/academy-server/internal/rls"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		log.Println("Connected to database")
	} else {
		log.Println("DATABASE_URL not set, running without persistence or outbox")
	}

	// Redis (rate limiting only; optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable (%v), rate limiting disabled", err)
			redisClient = nil
		}
	}

	// Mail transport and mailer
	transport, err := mailer.NewTransport(ctx, cfg.Mail)
	if err != nil {
		log.Fatalf("Failed to initialize mail transport: %v", err)
	}
	m, err := mailer.New(transport, cfg.Mail, cfg.Site)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	// Stores
	var formStore *forms.Store
	var outboxStore *outbox.Store
	if db != nil {
		formStore = forms.NewStore(db)
		outboxStore = outbox.NewStore(db)
	}

	// RLS prober needs a second, low-privilege connection
	var prober *rls.Prober
	if db != nil && cfg.Database.AnonURL != "" {
		anonDB, err := sql.Open("postgres", cfg.Database.AnonURL)
		if err != nil {
			log.Fatalf("Failed to open anon database connection: %v", err)
		}
		defer anonDB.Close()
		prober = rls.New(anonDB, db, nil)
	}

	// Staff auth
	var authManager *auth.Manager
	var sessions *auth.SessionStore
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		sessions = auth.NewSessionStore()
		sessions.Start(5 * time.Minute)
		defer sessions.Stop()
		authManager = auth.NewManager(&cfg.Auth, cfg.Site.BaseURL, sessions)
		log.Printf("Staff auth enabled for domain %s", cfg.Auth.AllowedDomain)
	} else {
		log.Println("Staff auth disabled, admin API not mounted")
	}

	// Handlers and server
	health := api.NewHealthChecker(db, redisClient)
	handlers := api.NewHandlers(cfg, formStore, outboxStore, m, prober, health)

	var limiter *api.RateLimiter
	if redisClient != nil {
		limiter = api.NewRateLimiter(redisClient, 10, time.Minute)
	}

	server := api.NewServer(cfg.Server, handlers, authManager, limiter, cfg.Site.AllowedOrigins())

	// Outbox retry worker repairs partial completions
	if outboxStore != nil && cfg.Outbox.Enabled {
		worker := outbox.NewWorker(outboxStore, m, cfg.Outbox)
		handlers.SetOutboxWorker(worker)
		go worker.Run(ctx)
		log.Println("Outbox retry worker started")
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
