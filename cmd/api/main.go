package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/obadran/settleup/internal/activity"
	"github.com/obadran/settleup/internal/auth"
	"github.com/obadran/settleup/internal/config"
	"github.com/obadran/settleup/internal/database"
	"github.com/obadran/settleup/internal/expense"
	expensesplit "github.com/obadran/settleup/internal/expense/split"
	"github.com/obadran/settleup/internal/group"
	"github.com/obadran/settleup/internal/idempotency"
	"github.com/obadran/settleup/internal/settlement"
	"github.com/obadran/settleup/internal/user"
	"github.com/obadran/settleup/pkg/logging"
	mw "github.com/obadran/settleup/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database")

	// Idempotency cache: redis when configured, postgres otherwise.
	var idemCache idempotency.Cache = idempotency.NewRepository(db)
	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis not available, idempotency cache falls back to postgres", "error", err)
		} else {
			idemCache = idempotency.NewRedisCache(client, 24*time.Hour)
			slog.Info("connected to redis")
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	splitFactory := expensesplit.NewFactory()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, jwtManager)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo)
	groupHandler := group.NewHandler(groupService)

	// Activity feature
	activityRepo := activity.NewRepository(db)
	activityService := activity.NewService(activityRepo, groupService)
	activityHandler := activity.NewHandler(activityService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, groupService, splitFactory, activityService)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, activityService)
	settlementHandler := settlement.NewHandler(settlementService, idemCache)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public auth routes
	r.Mount("/auth", userHandler.AuthRoutes())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(jwtManager))

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes(
			expenseHandler.GroupRoutes(),
			settlementHandler.GroupRoutes(),
			activityHandler.GroupRoutes(),
		))
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
	})

	addr := ":" + cfg.Port
	slog.Info("server starting", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
