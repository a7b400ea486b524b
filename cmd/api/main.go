package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vaultpass/securevault-go/internal/config"
	"github.com/vaultpass/securevault-go/internal/crypto"
	"github.com/vaultpass/securevault-go/internal/handler"
	"github.com/vaultpass/securevault-go/internal/middleware"
	"github.com/vaultpass/securevault-go/internal/otp"
	"github.com/vaultpass/securevault-go/internal/repository"
	"github.com/vaultpass/securevault-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, records, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("storage unavailable", "storage", string(cfg.Storage), "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hasher := crypto.NewArgon2Hasher(crypto.DefaultHashParams())
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	provisioner := otp.NewProvisioner(cfg.OTPIssuer)
	verifier := otp.NewVerifier(cfg.OTPWindow)
	qr := otp.QRRenderer{}

	router := handler.NewRouter(handler.Routes{
		Auth:       handler.NewAuthHandler(service.NewAuthService(users, hasher, tokens, provisioner, verifier, qr)),
		TwoFactor:  handler.NewTwoFactorHandler(service.NewTwoFactorService(users, hasher, provisioner, verifier, qr)),
		Vault:      handler.NewVaultHandler(service.NewVaultService(records)),
		Generator:  handler.NewGeneratorHandler(service.NewGeneratorService()),
		Tokens:     tokens,
		Logger:     logger,
		TrustProxy: cfg.TrustProxy,
		AuthLimit:  middleware.RateLimit(ctx, cfg.AuthRateRPS, cfg.AuthRateBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", string(cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStores returns the credential and record stores for the configured
// backend. MySQL is migrated to the latest schema before use.
func openStores(ctx context.Context, cfg config.Config) (service.UserStore, service.RecordStore, func(), error) {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryUserRepository(), repository.NewMemoryVaultRepository(), func() {}, nil
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Warn("closing database", "error", err)
		}
	}
	return repository.NewUserRepository(db), repository.NewVaultRepository(db), closeDB, nil
}

