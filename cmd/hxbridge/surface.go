package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/internal/config"
	"github.com/pthm/hxbridge/transport/natsbus"
	"github.com/pthm/hxbridge/transport/ws"
	"github.com/pthm/hxbridge/widgets"
)

var surfaceFlags struct {
	dump bool
}

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Open a panel from a host and keep it in sync",
	Long: `Fetch a panel document from the host at --addr, bind the widget
behaviors to it and apply envelopes until the host disposes the panel or
the process is interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSurface(ctx, cfg, logger, cmd.OutOrStdout())
	},
}

func init() {
	surfaceCmd.Flags().BoolVar(&surfaceFlags.dump, "dump", false, "print the document when the surface stops")
}

func runSurface(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	codec, err := cfg.NewCodec()
	if err != nil {
		return err
	}

	base := baseURL(cfg.Addr)
	panelID, body, err := fetchDocument(ctx, base)
	if err != nil {
		return err
	}
	logger = logger.With("panel_id", panelID)

	t, err := dialSurface(ctx, cfg, base, panelID, codec, logger)
	if err != nil {
		return err
	}

	s := hxbridge.NewSurface(t, hxbridge.WithLogger(logger))
	s.Add(widgets.Behaviors()...)
	if err := s.Load(ctx, bytes.NewReader(body)); err != nil {
		logger.Warn("some components failed to initialise", "error", err)
	}
	logger.Info("surface active", "instances", s.Registry().Count())

	err = s.Run(ctx)
	if surfaceFlags.dump {
		if html, herr := s.HTML(); herr == nil {
			fmt.Fprintln(out, html)
		}
	}
	_ = s.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "http://" + addr
}

// fetchDocument requests a new panel and returns its id and document.
func fetchDocument(ctx context.Context, base string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/", nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching panel: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetching panel: %s", resp.Status)
	}
	id := resp.Header.Get(hxbridge.PanelHeader)
	if id == "" {
		return "", nil, fmt.Errorf("fetching panel: response has no %s header", hxbridge.PanelHeader)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("reading panel: %w", err)
	}
	return id, body, nil
}

func dialSurface(ctx context.Context, cfg *config.Config, base, panelID string, codec hxbridge.Codec, logger *slog.Logger) (hxbridge.Transport, error) {
	if cfg.Transport == "ws" {
		url := "ws" + strings.TrimPrefix(base, "http") + "/panels/" + panelID + "/ws"
		return ws.Dial(ctx, url, codec, ws.WithLogger(logger))
	}

	if cfg.NATSURL == "embedded" {
		return nil, errors.New(`an embedded NATS server is only reachable in-process; set --nats-url to the host's server`)
	}
	nc, err := natsbus.Connect(cfg.NATSURL, "hxbridge-surface")
	if err != nil {
		return nil, err
	}
	t, err := natsbus.NewSurface(nc, panelID, codec, natsbus.WithLogger(logger))
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &ownedConn{Transport: t, close: nc.Close}, nil
}

// ownedConn closes the NATS connection along with the transport.
type ownedConn struct {
	*natsbus.Transport
	close func()
}

func (o *ownedConn) Close() error {
	err := o.Transport.Close()
	o.close()
	return err
}
