// Command server runs the listings HTTP API.
//
// Configuration is layered: defaults, then an optional config.yaml in the
// working directory, then LISTINGS_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/nbfhomes/listings"
	"github.com/nbfhomes/listings/instrumentation"
	"github.com/nbfhomes/listings/providers"
	"github.com/nbfhomes/listings/providers/gotrue"
	"github.com/nbfhomes/listings/providers/mock"
	"github.com/nbfhomes/listings/storage"
	"github.com/nbfhomes/listings/storage/memory"
	"github.com/nbfhomes/listings/storage/postgres"
)

const version = "1.0.0"

type serverConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogFormat  string `mapstructure:"log_format"`
	LogLevel   string `mapstructure:"log_level"`

	DatabaseURL string `mapstructure:"database_url"`

	AuthBaseURL string `mapstructure:"auth_base_url"`
	AuthAPIKey  string `mapstructure:"auth_api_key"`

	CORSOrigins       []string `mapstructure:"cors_origins"`
	AdminCheckOrigins []string `mapstructure:"admin_check_origins"`
	TrustProxy        bool     `mapstructure:"trust_proxy"`
	AuditEnabled      bool     `mapstructure:"audit_enabled"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func loadConfig() (*serverConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("database_url", "")
	viper.SetDefault("auth_base_url", "")
	viper.SetDefault("auth_api_key", "")
	viper.SetDefault("cors_origins", []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"https://nbfhomes.com",
		"https://www.nbfhomes.com",
		"https://nbfhomes.in",
		"https://www.nbfhomes.in",
	})
	viper.SetDefault("admin_check_origins", []string{})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("audit_enabled", true)
	viper.SetDefault("shutdown_timeout", 15*time.Second)

	viper.SetEnvPrefix("LISTINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg serverConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func newLogger(cfg *serverConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newStore connects to PostgreSQL when a database URL is configured and
// falls back to the seeded in-memory store for local development.
func newStore(ctx context.Context, cfg *serverConfig, logger *slog.Logger, inst *instrumentation.Instrumentation) (storage.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database_url configured, using in-memory storage")
		store := memory.NewStore(logger)
		seedCollections(store)
		return store, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store.SetInstrumentation(inst)
	return store, nil
}

// seedCollections loads the fixed storefront collections into a dev store.
func seedCollections(store *memory.Store) {
	now := time.Now()
	for _, c := range []struct{ handle, title, description string }{
		{"pgs", "PGs", "Paying guest accommodations"},
		{"flats", "Flats", "Apartments and flats"},
		{"private-rooms", "Private Rooms", "Private rooms for rent"},
	} {
		store.SetCollection(&storage.Collection{
			ID:          "col_" + c.handle,
			Handle:      c.handle,
			Title:       c.title,
			Description: c.description,
			Path:        "/search/" + c.handle,
			UpdatedAt:   now,
		})
	}
}

func newProvider(cfg *serverConfig, logger *slog.Logger, inst *instrumentation.Instrumentation) (providers.Provider, error) {
	if cfg.AuthBaseURL == "" {
		logger.Warn("no auth_base_url configured, using mock identity provider")
		return mock.NewMockProvider(), nil
	}
	provider, err := gotrue.NewProvider(&gotrue.Config{
		BaseURL: cfg.AuthBaseURL,
		APIKey:  cfg.AuthAPIKey,
	})
	if err != nil {
		return nil, err
	}
	provider.SetInstrumentation(inst)
	return provider, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName:    "listings",
		ServiceVersion: version,
		Enabled:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logger, inst)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := newProvider(cfg, logger, inst)
	if err != nil {
		return fmt.Errorf("failed to configure identity provider: %w", err)
	}

	handlerCfg := listings.DefaultConfig()
	handlerCfg.Logger = logger
	handlerCfg.Security.AllowedOrigins = cfg.CORSOrigins
	handlerCfg.Security.AdminCheckOrigins = cfg.AdminCheckOrigins
	handlerCfg.Security.AuditEnabled = cfg.AuditEnabled
	handlerCfg.RateLimit.TrustProxy = cfg.TrustProxy

	handler, err := listings.NewHandler(handlerCfg, store, provider, inst)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}
	defer handler.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listings API listening", "addr", cfg.ListenAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := inst.Shutdown(shutdownCtx); err != nil {
		logger.Warn("instrumentation shutdown failed", "error", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
