package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"streamview/internal/pkg/app"
)

func main() {
	// .env - только для локального запуска, в проде переменные задаются окружением
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:           "streamview",
		Short:         "Read-mostly Twitch chat client with third-party emote catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts.Channels = app.NormalizeChannels(opts.Channels)
			return app.Run(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", app.DefaultConfigPath, "path to config.json (created with defaults if missing)")
	cmd.Flags().StringArrayVar(&opts.Channels, "channel", nil, "channel to join, repeatable; overrides app.channels")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "trace, debug, info, warn or error; overrides app.log_level")
	cmd.SetContext(context.Background())

	return cmd
}
