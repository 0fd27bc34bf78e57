package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "wirechat-relay",
		Short:        "Real-time group chat relay",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	serve := newServeCmd(&configPath)
	root.AddCommand(serve, newChatCmd())
	// Running the binary without a subcommand starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var overrides config.Config
	var metricsOff bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := log.New("info", "console")

			cfg, path, err := config.Load(bootstrap, *configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			if metricsOff {
				cfg.MetricsEnabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(&cfg, logger)

			logger.Info().Str("addr", cfg.Addr).Msg("starting wirechat relay")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "log format (console, json)")
	flags.IntVar(&overrides.HistoryCapacity, "history-capacity", 0, "messages retained per room")
	flags.IntVar(&overrides.RateLimitPerMinute, "rate-limit", 0, "inbound events per connection per minute (0 = unlimited)")
	flags.BoolVar(&metricsOff, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}
