package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tetrix/config"
	"tetrix/logger"
	"tetrix/proto"
	"tetrix/server"

	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	mode := flag.String("mode", "", "log mode: dev, prod or silence")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("unable to load config: %v", err)
		}
	}
	if *mode != "" {
		cfg.Log.Mode = *mode
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
	}
	l := logger.New(cfg.LogMode(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, l); err != nil {
		l.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer lis.Close()

	ts := server.New(l)
	s := grpc.NewServer(proto.ServerOption())
	proto.RegisterTetrisServiceServer(s, ts)

	hs := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      server.NewHTTPHandler(ts, l),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		l.Info("starting gRPC server", slog.String("addr", cfg.Server.GRPCAddr))
		errCh <- s.Serve(lis)
	}()
	go func() {
		l.Info("starting HTTP server", slog.String("addr", cfg.Server.HTTPAddr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.Stop()
		_ = hs.Close()
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		l.Error("unable to shut down HTTP server", slog.String("error", err.Error()))
	}

	// game sessions last as long as the game, they don't get to finish past the timeout.
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-sctx.Done():
		s.Stop()
	}
	return nil
}
