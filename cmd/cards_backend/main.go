package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/dkuznetsov/bank-cards/internal/core/services"
	"github.com/dkuznetsov/bank-cards/internal/handlers"
	"github.com/dkuznetsov/bank-cards/internal/platform/pancrypto"
	"github.com/dkuznetsov/bank-cards/internal/repositories/database/pgsql"
	"github.com/dkuznetsov/bank-cards/pkg/config"
	"github.com/dkuznetsov/bank-cards/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	codec, err := pancrypto.NewCodec(cfg.PANEncryptionKey)
	if err != nil {
		logger.Error("Failed to initialize PAN codec", slog.String("error", err.Error()))
		os.Exit(1)
	}
	hasher := pancrypto.NewHasher(cfg.PANPepper)

	repos := pgsql.NewRepositoryContainer(dbPool)
	svc := services.NewServicesContainer(repos, codec, hasher, services.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		Expiry:    cfg.JWTExpiryDuration,
		Issuer:    cfg.JWTIssuer,
	})

	r := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:     cfg.JWTSecret,
		IsProduction:  cfg.IsProduction,
		AuthRateLimit: cfg.AuthRateLimit,
	}, svc, logger)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending up migrations using a temporary
// database/sql connection over the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
