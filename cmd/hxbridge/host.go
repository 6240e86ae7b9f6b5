package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/internal/config"
	"github.com/pthm/hxbridge/internal/server"
	"github.com/pthm/hxbridge/transport/natsbus"
)

var hostFlags struct {
	origins []string
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Serve the demo panel",
	Long: `Serve the demo inventory panel.

Every GET / creates a panel and returns its document. Surfaces connect back
on /panels/{id}/ws, or exchange envelopes over NATS when --transport=nats.
Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runHost(ctx, cfg, logger)
	},
}

func init() {
	hostCmd.Flags().StringSliceVar(&hostFlags.origins, "origin", nil, "extra WebSocket origin patterns to accept")
}

func runHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	codec, err := cfg.NewCodec()
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithOriginPatterns(hostFlags.origins...),
		server.WithPanelOptions(hxbridge.WithTitle("Inventory"), hxbridge.WithNotifier(logNotifier(logger))),
	}
	if cfg.Transport == "nats" {
		nc, shutdown, err := hostNATS(cfg)
		if err != nil {
			return err
		}
		defer shutdown()
		opts = append(opts, server.WithNATS(nc))
	}

	srv := server.New(demoSetup(inventory()), codec, opts...)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("host listening", "addr", cfg.Addr, "transport", cfg.Transport, "codec", cfg.Codec)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "panels", srv.Panels())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Panels first, so their dispose envelopes leave before connections drop.
	err = srv.Shutdown(shutdownCtx)
	return errors.Join(err, httpSrv.Shutdown(shutdownCtx))
}

// hostNATS connects to the configured NATS server, or starts an embedded
// one. The embedded server has no listener, so only in-process surfaces
// can reach it.
func hostNATS(cfg *config.Config) (*nats.Conn, func(), error) {
	if cfg.NATSURL != "embedded" {
		nc, err := natsbus.Connect(cfg.NATSURL, "hxbridge-host")
		if err != nil {
			return nil, nil, err
		}
		return nc, func() { _ = nc.Drain() }, nil
	}
	e, err := natsbus.StartEmbedded()
	if err != nil {
		return nil, nil, err
	}
	return e.Conn, e.Shutdown, nil
}

// logNotifier reports critical notices through the logger.
func logNotifier(logger *slog.Logger) hxbridge.Notifier {
	return hxbridge.NotifierFunc(func(ctx context.Context, n hxbridge.Notice) error {
		logger.Error("critical notice", "message", n.Message)
		return nil
	})
}
