package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/hfagents/config"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
)

// Version is reported by the MCP server and telemetry resources.
var Version = "dev"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           "hfagent",
	Short:         "Tool-using agents backed by Hugging Face",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.AddCommand(searchCmd, visitCmd, hubCmd, imagineCmd, generateCmd, serveMCPCmd)
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and starts tracing when enabled. The returned
// function flushes the exporters.
func setup(ctx context.Context) (*config.Config, func(), error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "hfagent",
		ServiceVersion: Version,
		Disable:        !cfg.Telemetry,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init telemetry: %w", err)
	}
	logger := logging.WithComponent("cli")
	return cfg, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}, nil
}
