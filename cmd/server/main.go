package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/settlement-form/backend/internal/api"
	"github.com/settlement-form/backend/internal/config"
	"github.com/settlement-form/backend/internal/drive"
	"github.com/settlement-form/backend/internal/ledger"
	"github.com/settlement-form/backend/internal/logging"
	"github.com/settlement-form/backend/internal/metrics"
	"github.com/settlement-form/backend/internal/notify"
	"github.com/settlement-form/backend/internal/records"
	"github.com/settlement-form/backend/internal/settlement"
	"github.com/settlement-form/backend/internal/storage"
	"github.com/settlement-form/backend/internal/upload"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// defaultConfigPath prefers SETTLEMENT_CONFIG, then settlement.yaml next to the executable.
func defaultConfigPath() string {
	if p := os.Getenv("SETTLEMENT_CONFIG"); p != "" {
		return p
	}
	exePath, err := os.Executable()
	if err != nil {
		return "settlement.yaml"
	}
	return filepath.Join(filepath.Dir(exePath), "settlement.yaml")
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := records.Open(ctx, cfg.Records.URI)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer store.Close()

	files, sheet, err := backends(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	uploadMgr := upload.NewManager(files, store, sheet, upload.Options{
		ParentFolderID:    cfg.Google.ParentFolderID,
		Timeout:           cfg.BackgroundTimeout(),
		UploadConcurrency: cfg.Processing.UploadConcurrency,
		Metrics:           m,
		Logger:            logger,
	})

	notifier := notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	svc := settlement.NewService(store, notifier, uploadMgr,
		settlement.WithTemplate(notify.Template{Subject: cfg.Mail.Subject, Organization: cfg.Mail.Organization}),
		settlement.WithMetrics(m),
		settlement.WithLogger(logger),
	)

	go cleanupJobs(ctx, uploadMgr, cfg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Logging.RequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		Logger:         logger,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Settlements: svc,
		Jobs:        uploadMgr,
		Gatherer:    reg,
		Version:     Version,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("settlement server starting",
		"version", Version,
		"build", BuildTime,
		"config", configPath,
		"listen", cfg.GetServerAddr(),
		"google", cfg.UsesGoogle(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Processing.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := uploadMgr.WaitContext(shutdownCtx); err != nil {
		logger.Warn("background jobs still running at exit", "active", uploadMgr.ActiveJobs())
	}
	return nil
}

// backends picks the Google drive and sheet when credentials are configured,
// otherwise the local directory store and workbook.
func backends(ctx context.Context, cfg *config.AppConfig) (drive.Service, ledger.Appender, error) {
	if !cfg.UsesGoogle() {
		files, err := storage.NewLocalStore(cfg.Local.DriveDirectory)
		if err != nil {
			return nil, nil, fmt.Errorf("open local drive: %w", err)
		}
		slog.Info("using local backends", "drive", cfg.Local.DriveDirectory, "ledger", cfg.Local.LedgerFile)
		return files, ledger.NewWorkbook(cfg.Local.LedgerFile, cfg.Local.LedgerSheet), nil
	}

	files, err := drive.NewGoogle(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := ledger.NewSheets(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetRange)
	if err != nil {
		return nil, nil, err
	}
	return files, sheet, nil
}

func cleanupJobs(ctx context.Context, mgr *upload.Manager, cfg *config.AppConfig) {
	interval := time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	retention := time.Duration(cfg.Processing.JobRetentionMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := mgr.CleanupOldJobs(retention); n > 0 {
				slog.Debug("evicted finished jobs", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
