package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/xtding233/doko-backend/internal/config"
	"github.com/xtding233/doko-backend/internal/doko"
	"github.com/xtding233/doko-backend/internal/rules"
	"github.com/xtding233/doko-backend/internal/server"
	"github.com/xtding233/doko-backend/internal/session"
	"github.com/xtding233/doko-backend/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loader := rules.NewLoader(cfg.RulesDir)
	if _, err := loader.Ruleset(cfg.Ruleset); err != nil {
		return fmt.Errorf("default ruleset: %w", err)
	}
	watcher := rules.NewFileWatcher(loader.WatchPaths(), cfg.ReloadInterval, func(path string) {
		loader.Invalidate()
		log.Printf("ruleset file changed: %s, cache cleared", path)
	})
	watcher.Discover = loader.WatchPaths
	watcher.Start()
	defer watcher.Stop()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	format := doko.NewFormatter(cfg.Locale)
	defaults := server.Defaults{Ruleset: cfg.Ruleset, ValuePair: cfg.ValuePair, SoloValue: cfg.SoloValue}
	sessions := session.NewService(loader, store, format)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewAPI(sessions, loader, defaults).Handler(cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := grpc.NewServer()
	server.NewScoring(loader, format, defaults).Register(grpcSrv)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("http listening on %s ...", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		log.Printf("grpc listening on %s ...", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	log.Println("shutting down ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	return err
}
