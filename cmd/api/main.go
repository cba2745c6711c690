package main

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

	"github.com/geocoder89/socialhub/internal/accounts"
	"github.com/geocoder89/socialhub/internal/auth"
	"github.com/geocoder89/socialhub/internal/blob"
	"github.com/geocoder89/socialhub/internal/config"
	"github.com/geocoder89/socialhub/internal/db"
	httpx "github.com/geocoder89/socialhub/internal/http"
	"github.com/geocoder89/socialhub/internal/http/handlers"
	"github.com/geocoder89/socialhub/internal/http/middlewares"
	"github.com/geocoder89/socialhub/internal/observability"
	"github.com/geocoder89/socialhub/internal/redisclient"
	"github.com/geocoder89/socialhub/internal/repo/memory"
	"github.com/geocoder89/socialhub/internal/repo/postgres"
	"github.com/geocoder89/socialhub/internal/security"
	"github.com/geocoder89/socialhub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "socialhub-api",
			Version:     cfg.Version,
			Env:         cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	// account storage
	var (
		users     accounts.Directory
		creds     accounts.CredentialStore
		registrar accounts.Registrar
	)

	switch cfg.Store {
	case config.BackendPostgres:
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		checks["db"] = pool.Ping
		users = postgres.NewUsersRepo(pool, prom)
		creds = postgres.NewCredentialsRepo(pool, prom)
		registrar = postgres.NewRegistrar(pool, prom)
	default:
		log.Warn("using in-memory account store; data is lost on restart")
		dir := memory.NewDirectory()
		users, creds, registrar = dir.Users(), dir.Credentials(), dir
	}

	hashers, err := security.NewDefaultRegistry(cfg.PasswordAlgo)
	if err != nil {
		return err
	}

	svc, err := accounts.NewService(users, creds, registrar, hashers, log, prom)
	if err != nil {
		return err
	}

	// session transport
	var transport middlewares.Transport

	switch cfg.AuthMode {
	case config.AuthModeToken:
		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
		if err != nil {
			return err
		}
		transport = middlewares.NewBearerTransport(tokens)
	case config.AuthModeSession:
		var store session.Store

		if cfg.SessionStore == config.BackendRedis {
			rc, err := redisclient.Dial(ctx, redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer rc.Close()

			checks["redis"] = rc.Ping
			store = session.NewRedisStore(rc.Redis())
		} else {
			mem := session.NewMemoryStore()
			go mem.RunSweeper(ctx, time.Minute)
			store = mem
		}

		transport = middlewares.NewSessionTransport(auth.NewSessionManager(store, cfg.SessionIdle), cfg.SecureCookies())
	}

	deps := httpx.Deps{
		Config:    cfg,
		Accounts:  svc,
		Transport: transport,
		Prom:      prom,
		Gatherer:  reg,
		Health:    handlers.NewHealthHandler(checks),
	}

	if cfg.S3Bucket != "" {
		store, err := blob.NewS3Store(ctx, blob.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		deps.Avatars = store
	} else {
		log.Info("S3_BUCKET not set; avatar uploads disabled")
	}

	seedCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, svc, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "auth_mode", cfg.AuthMode, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("server shutting down")
	deps.Health.Drain()

	shutdownCtx, cancelShutdown := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
