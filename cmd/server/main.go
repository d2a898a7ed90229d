package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/brinda/clasico/internal/config"
	"github.com/brinda/clasico/internal/handler/chat"
	"github.com/brinda/clasico/internal/handler/health"
	"github.com/brinda/clasico/internal/platform"
	"github.com/brinda/clasico/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := platform.NewLogger(stdout, cfg)

	inf := platform.Open(ctx, cfg, logger)
	defer inf.Close()

	svc := platform.NewServices(ctx, cfg, inf, logger)
	if cfg.Generators() {
		logger.Info("challenge generation enabled", "timeout", cfg.GeneratorTimeout)
	}

	// --- HTTP Server ---
	app := server.App{
		Catalog:      svc.Catalog,
		Engine:       svc.Engine,
		Gameplay:     svc.Gameplay,
		Rewards:      svc.Rewards,
		Bus:          inf.Bus,
		CampaignID:   cfg.CampaignID,
		LinkBaseURL:  cfg.LinkBaseURL,
		AdminKeyHash: cfg.AdminKeyHash,
		CORSOrigins:  cfg.CORSOrigins,
		WebDir:       cfg.WebDir,
	}
	srv := server.New(cfg.HTTPAddr, logger, app, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, inf.Checks).Routes())
		r.Mount("/chat", chat.NewHandler(logger, inf.Store, inf.Bus).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "demo", cfg.Demo())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
