package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hxbridge/internal/config"
)

// Version set via ldflags during build
var version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hxbridge",
	Short: "Keep UI components in step between a host and a rendering surface",
	Long: `hxbridge runs both ends of a component bridge.

The host owns component state and serves panel documents over HTTP. A
surface loads a document, binds a behavior to every component in it and
applies the envelopes the host sends over WebSocket or NATS.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.DefaultPath+" when present)")
	flags.String("addr", "", "host listen address, or the host a surface connects to")
	flags.String("transport", "", "envelope transport: ws or nats")
	flags.String("nats-url", "", `NATS server URL, or "embedded"`)
	flags.String("codec", "", "frame codec: json, signed or sealed")
	flags.String("key", "", "secret for the signed and sealed codecs")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(surfaceCmd)
	rootCmd.AddCommand(vetCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration for cmd and builds its logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hxbridge version %s\n", version)
	},
}
