// Command ingest runs the pipeline in batch mode: it scans an exported SMS
// message dump for receipt links and processes every one of them.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/parser"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/service"
	"github.com/OsaidB/Invoices-Convertor/internal/ingest"
	"github.com/OsaidB/Invoices-Convertor/internal/relay"
	"github.com/OsaidB/Invoices-Convertor/pkg/archive"
	"github.com/OsaidB/Invoices-Convertor/pkg/config"
)

func main() {
	var (
		messagesPath = flag.String("messages", "", "path to the SMS dump (overrides INGEST_MESSAGES_PATH)")
		repair       = flag.Bool("repair", false, "apply the quantity-repair pass to mismatched receipts")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if *messagesPath == "" {
		*messagesPath = cfg.Ingest.MessagesPath
	}

	ar, err := archive.New(cfg.Archive.Root, logger)
	if err != nil {
		logger.Error("failed to open archive", slog.Any("error", err))
		os.Exit(1)
	}

	svc := service.New(
		parser.New(parser.DefaultConfig(), logger),
		ar,
		relay.New(cfg.Relay.UploadURL, cfg.Relay.Timeout, logger),
		&http.Client{Timeout: cfg.Server.DownloadTimeout},
		logger,
	)

	scanner := ingest.NewScanner(cfg.Ingest.Sender, cfg.Ingest.URLPrefix, logger)
	urls, err := scanner.ScanFile(*messagesPath)
	if err != nil {
		logger.Error("failed to scan message dump", slog.String("path", *messagesPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("receipt links found", slog.Int("count", len(urls)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processed, failed := 0, 0
	for _, url := range urls {
		if ctx.Err() != nil {
			logger.Warn("interrupted", slog.Int("remaining", len(urls)-processed-failed))
			break
		}
		if _, err := svc.ProcessURL(ctx, url, *repair); err != nil {
			failed++
			logger.Error("receipt failed", slog.String("url", url), slog.Any("error", err))
			continue
		}
		processed++
	}

	logger.Info("batch done", slog.Int("processed", processed), slog.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}
