package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docstack/internal/audit"
	"docstack/internal/bootstrap"
	"docstack/internal/catalog"
	"docstack/internal/config"
	"docstack/internal/database"
	"docstack/internal/files"
	"docstack/internal/handler"
	"docstack/internal/identity"
	"docstack/internal/logger"
	"docstack/internal/server"
	"docstack/internal/storage"
)

func main() {
	if err := run(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg := config.NewConfig()
	log := logger.New(cfg)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	db := database.NewDatabase()
	if err := db.Connect(ctx, cfg.Database); err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("failed to migrate database", "error", err)
		return err
	}

	backend, err := storage.NewBackendFromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialize storage backend", "error", err)
		return err
	}

	trail := audit.NewTrail(log, &db)
	catalogManager := catalog.NewManager(log, &db, &trail)
	identityManager := identity.NewManager(log, &db, &trail)
	filesManager := files.NewManager(log, &db, backend, &trail, &catalogManager)

	bootstrapper := bootstrap.NewBootstrapper(log, cfg.Bootstrap, &identityManager, &catalogManager)
	if err := bootstrapper.Run(ctx); err != nil {
		log.Error("bootstrap failed", "error", err)
		return err
	}

	h := handler.NewHandler(log, &catalogManager, &filesManager, &identityManager, &trail, backend)
	srv := server.New(log, cfg.Server, &h)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Listen(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Error("http server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server", "error", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
