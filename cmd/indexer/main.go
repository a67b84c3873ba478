package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/alejandrodnm/pixelwatch/config"
	"github.com/alejandrodnm/pixelwatch/internal/adapters/api"
	"github.com/alejandrodnm/pixelwatch/internal/adapters/onchain"
	"github.com/alejandrodnm/pixelwatch/internal/adapters/storage"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/alejandrodnm/pixelwatch/internal/indexer"
	"github.com/alejandrodnm/pixelwatch/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	backfillOnly := flag.Bool("backfill-only", false, "run one backfill and exit")
	report := flag.Int("report", -1, "print price history + stats for a pixel id and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("pixelwatch starting",
		"config", *configPath,
		"rpc", cfg.Chain.RPCURL,
		"contract", cfg.Chain.ContractAddress,
		"window", cfg.Chain.BackfillWindow,
	)

	var store ports.EventStore
	if cfg.Storage.DSN == "" {
		slog.Warn("no storage DSN configured, running without persistence")
		store = storage.Unavailable{}
	} else {
		sqlStore := storage.NewSQLiteStore(cfg.Storage.DSN)
		defer sqlStore.Close()
		store = sqlStore
	}

	var chain ports.ChainReader
	if cfg.Chain.RPCURL != "" {
		client, err := onchain.Dial(cfg.Chain.RPCURL)
		if err != nil {
			slog.Warn("chain connection failed, serving cached data only", "err", err)
		} else {
			defer client.Close()
			chain = client
		}
	}

	ixCfg := indexer.DefaultConfig()
	ixCfg.BackfillWindow = cfg.Chain.BackfillWindow
	if cfg.Chain.ContractAddress != "" {
		ixCfg.Contract = common.HexToAddress(cfg.Chain.ContractAddress)
	}

	hub := api.NewHub()
	ix := indexer.New(ixCfg, store, chain, hub)
	queries := indexer.NewQueries(store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report >= 0 {
		if !domain.ValidPixelID(*report) {
			slog.Error("pixel id out of range", "pixel", *report, "max", domain.PixelCount-1)
			os.Exit(1)
		}
		if _, err := ix.Backfill(ctx); err != nil {
			slog.Warn("backfill failed, reporting cached data", "err", err)
		}
		if err := printReport(ctx, queries, *report); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *backfillOnly {
		n, err := ix.Backfill(ctx)
		if err != nil {
			slog.Error("backfill failed", "err", err, "written", n)
			os.Exit(1)
		}
		slog.Info("backfill done", "events", n)
		return
	}

	ix.Start(ctx)
	defer ix.Stop()

	srv := api.NewServer(queries, store, ix, hub)
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		slog.Error("api server exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("pixelwatch stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
