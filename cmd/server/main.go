package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assignment-api/internal/config"
	"github.com/yukikurage/task-assignment-api/internal/database"
	"github.com/yukikurage/task-assignment-api/internal/handlers"
	"github.com/yukikurage/task-assignment-api/internal/logger"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"github.com/yukikurage/task-assignment-api/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Connect to database
	db, err := database.Connect(cfg.Database, logger.GormLevel(cfg.Logging.Level), logg)
	if err != nil {
		logg.Fatalw("failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.Migrate(db, logg); err != nil {
		logg.Fatalw("failed to run migrations", "error", err)
	}

	store := repository.New(db)

	tokens, err := services.NewTokenService(cfg.Auth)
	if err != nil {
		logg.Fatalw("failed to initialize token service", "error", err)
	}

	// Initialize AI service
	var generator services.TaskGenerator
	if cfg.OpenAI.APIKey != "" {
		generator = services.NewAIService(cfg.OpenAI.APIKey)
	} else {
		logg.Infow("OPENAI_API_KEY not set, task generation disabled")
	}

	svc := handlers.Services{
		Auth:   services.NewAuthService(store, tokens, services.NewLogMailer(logg), cfg.Auth.PasswordResetURL, logg),
		Users:  services.NewUserService(store, logg),
		Tasks:  services.NewTaskService(store, generator, logg),
		Groups: services.NewGroupService(store, logg),
	}

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		cfg.Redis.PoolSize,
		"tcp",
		cfg.RedisAddr(),
		cfg.Redis.Password,
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		logg.Fatalw("failed to create redis session store", "error", err)
	}
	// Configure session options based on environment
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Server.Mode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})

	router := handlers.NewRouter(svc, sessionStore, logg)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Infow("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Errorw("server shutdown failed", "error", err)
	}
}
