package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weatherstation-go/bus"
	"weatherstation-go/services/config"
	"weatherstation-go/services/console"
	"weatherstation-go/services/weather"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	logLevel string
	jsonLogs bool
	device   string
}

func (f *rootFlags) logger() (*slog.Logger, error) {
	level, err := parseLogLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	return newLogger(level, f.jsonLogs), nil
}

func newRootCommand() *cobra.Command {
	f := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "Weather station on a simulated board",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleRunCmd(cmd, f)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&f.logLevel, "log-level", "l", envDefault("WEATHER_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&f.jsonLogs, "json-logs", false, "log as JSON instead of coloured text")
	rootCmd.PersistentFlags().StringVarP(&f.device, "device", "d", envDefault("WEATHER_DEVICE", "sim"), "embedded config to publish")

	rootCmd.AddCommand(newRunCommand(f))
	rootCmd.AddCommand(newSnapshotCommand(f))
	return rootCmd
}

func newRunCommand(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the station until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleRunCmd(cmd, f)
		},
	}
}

func newSnapshotCommand(f *rootFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Take one acquisition and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSnapshotCmd(cmd, f, timeout)
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "how long to wait for the cycle")
	return cmd
}

// start brings up config and the weather service on a fresh bus and
// returns a client connection.
func start(ctx context.Context, f *rootFlags, log *slog.Logger, withConsole bool) *bus.Connection {
	ctx = context.WithValue(ctx, config.CtxDeviceKey, f.device)
	b := bus.NewBus(8)
	config.NewConfigService(log).Start(ctx, b.NewConnection("config"))
	if withConsole {
		_ = console.New(log).Start(ctx, b.NewConnection("console"))
	}
	go weather.NewOnPlatform(b.NewConnection("weather"), log).Run(ctx)
	return b.NewConnection(appName)
}

func handleRunCmd(cmd *cobra.Command, f *rootFlags) error {
	log, err := f.logger()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", "device", f.device)
	start(ctx, f, log, true)
	<-ctx.Done()
	log.Info("shutting down")
	// Let services publish their stopped state.
	time.Sleep(100 * time.Millisecond)
	return nil
}

func handleSnapshotCmd(cmd *cobra.Command, f *rootFlags, timeout time.Duration) error {
	log, err := f.logger()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := start(ctx, f, log, false)
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rep, err := conn.RequestWait(reqCtx, conn.NewMessage(bus.T("weather", "cmd", "acquire"), nil, false))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("acquire: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep.Payload)
}
