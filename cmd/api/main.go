package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"membership_backend/internal/auth"
	"membership_backend/internal/auth/adapter"
	authrepo "membership_backend/internal/auth/repository"
	"membership_backend/internal/auth/token"
	apphttp "membership_backend/internal/http"
	"membership_backend/internal/http/router"
	"membership_backend/internal/organisations"
	orgrepo "membership_backend/internal/organisations/repository"
	"membership_backend/internal/store/memory"
	"membership_backend/migrations"
	"membership_backend/platform/config"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/phone"
	"membership_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// stores bundles the persistence backends selected by STORE_DRIVER.
type stores struct {
	users  authrepo.AuthRepository
	orgs   orgrepo.Repository
	tx     db.Transactor
	health apphttp.HealthChecker
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize store", "error", err)
		panic("failed to initialize store: " + err.Error())
	}
	defer st.close()

	// Shared validator instance for dependency injection
	val := validator.New()
	tokens := token.NewManager(cfg)
	phoneNormalizer := phone.NewNormalizerFromConfig(cfg)

	// ========================================================================
	// Domain Modules
	// ========================================================================

	// Organisations see users only through the auth adapter.
	userDirectory := adapter.NewUserDirectoryAdapter(st.users)
	orgModule := organisations.NewModule(st.orgs, st.tx, userDirectory, val, log)

	authModule, err := auth.NewModule(st.users, st.tx, orgModule.Service(), tokens, val, phoneNormalizer, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: st.health,
		Tokens: tokens,
		Modules: []apphttp.Module{
			authModule,
			orgModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

func openStores(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (stores, error) {
	if cfg.GetStoreDriver() == config.StoreDriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		st := memory.New()
		return stores{users: st, orgs: st, tx: st, health: st, close: func() {}}, nil
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return stores{}, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.GetRunMigrations() {
		applied, err := db.RunMigrations(ctx, pool, migrations.FS)
		if err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("run database migrations: %w", err)
		}
		log.Info("database migrations complete", "applied", applied)
	}

	return stores{
		users:  authrepo.New(pool),
		orgs:   orgrepo.New(pool),
		tx:     db.NewTransactor(pool),
		health: db.NewPoolAdapter(pool),
		close:  pool.Close,
	}, nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
