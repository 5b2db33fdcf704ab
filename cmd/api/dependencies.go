package main

import (
	"log/slog"
	"net/http"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/handler"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/parser"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/service"
	"github.com/OsaidB/Invoices-Convertor/internal/export"
	"github.com/OsaidB/Invoices-Convertor/internal/relay"
	"github.com/OsaidB/Invoices-Convertor/pkg/archive"
	"github.com/OsaidB/Invoices-Convertor/pkg/config"
	"github.com/OsaidB/Invoices-Convertor/pkg/cron"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Parser  *parser.Parser
	Archive *archive.Archive
	Relay   *relay.Client

	Service       *service.Service
	ExportService *export.Service
	Scheduler     *cron.Scheduler

	Handler *handler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	ar, err := archive.New(cfg.Archive.Root, logger)
	if err != nil {
		return nil, err
	}
	deps.Archive = ar

	deps.Parser = parser.New(parser.DefaultConfig(), logger)
	deps.Relay = relay.New(cfg.Relay.UploadURL, cfg.Relay.Timeout, logger)

	httpClient := &http.Client{Timeout: cfg.Server.DownloadTimeout}
	deps.Service = service.New(deps.Parser, deps.Archive, deps.Relay, httpClient, logger)
	deps.ExportService = export.NewService(deps.Archive, logger)
	deps.Scheduler = cron.NewScheduler(deps.Service, logger)

	deps.Handler = handler.New(deps.Service, deps.ExportService, logger)

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}
