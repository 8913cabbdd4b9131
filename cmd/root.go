// Package cmd implements the blobtrail command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var (
	logLevel   string
	configPath string

	// logger is configured by the root command before any subcommand runs.
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:     "blobtrail",
	Short:   "Detect, track and annotate bright or moving blobs in video",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(err, "invalid --log-level %q", logLevel)
		}
		logger = newLogger(level)
		return nil
	},
}

func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Execute runs the root command. Ctrl+C cancels the running command at the
// next frame boundary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML tracker configuration; flags override its values")
}
