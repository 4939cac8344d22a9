package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/app/api"
	"github.com/LilFatFrank/scratch-off/pkg/bulkload"
	"github.com/LilFatFrank/scratch-off/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	inputPath := flag.String("input", "", "Path to JSON file with the user list")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: bulkloader -config config.yaml -input users.json")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	entries, err := readEntries(*inputPath)
	if err != nil {
		logger.Fatal("Failed to read user list", zap.Error(err))
	}
	logger.Info("Loaded user list", zap.String("input", *inputPath), zap.Int("entries", len(entries)))

	svcs, closer, err := api.BuildServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to wire services", zap.Error(err))
	}
	defer closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := bulkload.New(svcs.Users, svcs.Cards, bulkload.Config{}, logger)
	summary, err := processor.Run(ctx, entries)
	if err != nil {
		logger.Fatal("Bulk import aborted", zap.Error(err),
			zap.Int("processed", summary.Processed))
	}

	fmt.Printf("Imported %d users (%d created, %d existing), granted %d cards, %d failures\n",
		summary.Processed, summary.Created, summary.Existing,
		summary.CardsGranted, len(summary.Failures))
	for _, failure := range summary.Failures {
		fmt.Printf("  failed %s: %v\n", failure.Wallet, failure.Err)
	}
	if len(summary.Failures) > 0 {
		os.Exit(1)
	}
}

func readEntries(path string) ([]bulkload.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var entries []bulkload.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}
