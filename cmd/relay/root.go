package main

import (
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/convo-relay/internal/app"
	"github.com/vovakirdan/convo-relay/internal/config"
	relaylog "github.com/vovakirdan/convo-relay/internal/log"
)

// Set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath    string
	addr          string
	allowedOrigin string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "relay",
		Short:         "Real-time relay for chat messages, presence, typing and call signaling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yaml)")
	flags.StringVar(&opts.addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.allowedOrigin, "allowed-origin", "", "web client origin allowed to connect, or *")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the relay version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// resolveConfig loads configuration and applies command-line overrides on top.
func resolveConfig(opts *rootOptions) (config.Config, string, error) {
	bootLogger := relaylog.New("info", "console")

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{
		Addr:          opts.addr,
		AllowedOrigin: opts.allowedOrigin,
		LogLevel:      opts.logLevel,
	})
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func serve(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, path, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	logger := relaylog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("config", path).
		Str("addr", cfg.Addr).
		Str("allowed_origin", cfg.AllowedOrigin).
		Str("version", version).
		Msg("starting relay")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	serverErr, err := application.Start()
	if err != nil {
		logger.Error().Err(err).Msg("failed to start relay")
		return err
	}

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"relay": func(ctx context.Context) error {
			return application.Shutdown(ctx)
		},
	})

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("relay stopped with error")
			return err
		}
		return nil
	case code := <-wait:
		logger.Info().Int("exit_code", code).Msg("relay stopped")
		if code != 0 {
			os.Exit(code)
		}
		return nil
	}
}
