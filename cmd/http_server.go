package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/casetrack/api"
	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/auth"
	authPostgres "github.com/frahmantamala/casetrack/internal/auth/postgres"
	"github.com/frahmantamala/casetrack/internal/broker"
	"github.com/frahmantamala/casetrack/internal/core/events"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/internal/transport/middleware"
	"github.com/frahmantamala/casetrack/internal/transport/rest"
	"github.com/frahmantamala/casetrack/internal/user"
	userPostgres "github.com/frahmantamala/casetrack/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Redis     *redis.Client
	EventBus  *events.EventBus
	Publisher *broker.Publisher
	Router    *chi.Mux
	Logger    *slog.Logger
}

func (d *Dependencies) Close() {
	d.EventBus.Wait()
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Error("broker close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr, "env", deps.Config.Server.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	lg.Info("server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := newLogger(cfg)

	if _, err := api.Load(ctx); err != nil {
		return nil, err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(cfg.Database, db, cfg.IsDevelopment())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config:   cfg,
		DB:       db,
		EventBus: events.NewEventBus(lg),
		Logger:   lg,
	}

	deps.EventBus.Subscribe(events.Wildcard, events.AuditLog(lg.With("component", "audit")))
	if cfg.Broker.Enabled {
		pub, err := broker.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue, lg)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect broker: %w", err)
		}
		deps.Publisher = pub
		deps.EventBus.Subscribe(events.Wildcard, pub.Forward())
	}

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		switch cfg.RateLimit.Backend {
		case "redis":
			deps.Redis = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				deps.Close()
				return nil, fmt.Errorf("failed to connect redis: %w", err)
			}
			limiter = middleware.NewRedisLimiter(deps.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Prefix)
		default:
			limiter = middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	base := transport.NewBaseHandler(lg, cfg.IsDevelopment())

	authService := auth.NewService(
		authPostgres.NewCredentialRepository(gdb),
		authPostgres.NewSessionRepository(gdb),
		auth.NewJWTTokenIssuer(cfg.Security.JWTSecret),
		auth.NewPasswordHasher(cfg.Security.BCryptCost),
		deps.EventBus,
		auth.ServiceConfig{
			TokenTTL:         cfg.Security.TokenTTL,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
		},
		lg,
	)
	userService := user.NewService(userPostgres.NewRepository(db))

	routeDeps := rest.Deps{
		Base:         base,
		DB:           db.DB,
		Auth:         auth.NewHandler(base, authService),
		RBAC:         auth.NewRBACAuthorization(base),
		User:         user.NewHandler(base, userService),
		LoginLimiter: limiter,
		OpenAPI:      api.Document,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}
	if deps.Redis != nil {
		routeDeps.Redis = deps.Redis
	}
	deps.Router = rest.NewRouter(routeDeps)

	return deps, nil
}
