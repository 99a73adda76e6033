package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/pkg/config"
	"github.com/FACorreiaa/ledger-import/pkg/db"
	"github.com/FACorreiaa/ledger-import/pkg/metrics"
	"github.com/FACorreiaa/ledger-import/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Stores
	Ledger   *repository.PostgresLedger
	Settings *repository.SQLiteSettings
	Archive  storage.Storage // nil when archiving is disabled

	// Services
	Metrics       *metrics.Import
	Provisioner   *accounts.Provisioner
	ImportService *service.ImportService
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized")
	return deps, nil
}

// initDatabase opens the ledger connection pool. Migrations run separately.
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: d.Config.Database.MaxConnLifetime,
		MaxConnIdleTime: d.Config.Database.MaxConnIdleTime,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database
	return nil
}

func (d *Dependencies) initRepositories(ctx context.Context) error {
	d.Ledger = repository.NewPostgresLedger(d.DB.Pool, d.Logger, d.Config.Import.MatchWindowDays)

	prefs, err := repository.NewSQLiteSettings(ctx, d.Config.Settings.Path)
	if err != nil {
		return err
	}
	d.Settings = prefs

	if d.Config.Archive.Dir != "" {
		archive, err := storage.NewLocalStorage(d.Config.Archive.Dir)
		if err != nil {
			return err
		}
		d.Archive = archive
	}
	return nil
}

func (d *Dependencies) initServices() error {
	d.Metrics = metrics.New()

	d.ImportService = service.NewImportService(d.Ledger, d.Settings, service.Config{
		Currency:      d.Config.Import.Currency,
		LookupWorkers: d.Config.Import.LookupWorkers,
	}, d.Metrics, d.Logger)

	if d.Config.Import.ProvisionEnabled {
		d.Provisioner = accounts.NewProvisioner(d.Ledger, d.Ledger, d.Ledger, d.Logger)
		d.ImportService.WithProvisioner(d.Provisioner)
	}
	return nil
}

// Cleanup waits for background rule creation, flushes metrics and closes
// all resources.
func (d *Dependencies) Cleanup() {
	if d.Provisioner != nil {
		for _, err := range d.Provisioner.Wait() {
			d.Logger.Warn("auto-assign rule was not created", "error", err)
		}
	}

	if d.Metrics != nil && d.Config.Observability.MetricsEnabled {
		if err := d.Metrics.WriteTextfile(d.Config.Observability.MetricsTextfile); err != nil {
			d.Logger.Warn("failed to write metrics", "error", err)
		}
	}

	if d.Settings != nil {
		if err := d.Settings.Close(); err != nil {
			d.Logger.Warn("failed to close settings database", "error", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Debug("cleanup completed")
}
