package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bookbazaar-backend/config"
	"bookbazaar-backend/database"
	"bookbazaar-backend/logging"
	"bookbazaar-backend/notify"
	"bookbazaar-backend/routes"
	"bookbazaar-backend/store"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	logger := logging.New(cfg.LogLevel)

	// Pick the persistence backend once; everything downstream only
	// sees the store interface.
	var (
		st store.Store
		db *gorm.DB
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations: ", err)
		}
		if err := database.CreateDefaultAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Printf("Warning: Could not create default admin: %v", err)
		}
		if err := database.CreateDefaultCategories(db); err != nil {
			log.Printf("Warning: Could not seed default categories: %v", err)
		}
		st = store.NewSQL(db)
		logger.Info("using relational backend")

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to redis: ", err)
		}
		cancel()
		st = store.NewKV(rdb, store.KVPrefixes{
			Users:      cfg.KV.Users,
			Books:      cfg.KV.Books,
			Categories: cfg.KV.Categories,
			Carts:      cfg.KV.Carts,
			Orders:     cfg.KV.Orders,
		})
		logger.Info("using key-value backend", "addr", cfg.Redis.Addr)
	}

	notifier := notify.New(cfg, logger)
	defer notifier.Close()

	// Setup Gin router
	r := gin.Default()

	origins := []string{cfg.FrontendURL}
	if cfg.FrontendURL == "" {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.SetupRoutes(r, st, notifier)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("error closing database connection", "error", err)
			}
		}
	}

	logger.Info("server exited gracefully")
}
