package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	converter "github.com/pixel-tb/pxconverter/pkg"
)

var configuration converter.Configuration

var (
	logger         Logger
	configFilename string
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converter",
		Short: "Calibrate and cluster pixel hits of a ROC test beam run",
		Long: `converter resolves the charge of every pixel hit with the per pixel
pulse height calibration, groups neighbouring hits into clusters and writes
the cluster observables to an HDF5 file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			configuration, err = LoadConfiguration(configFilename)
			if err != nil {
				message := fmt.Errorf("Error reading configuration file: %w", err)
				logger.Error(message.Error())
				return err
			}
			converter.SetLogger(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file path")

	cmd.AddCommand(
		NewRunCommand(),
		NewCalibrateCommand(),
		NewInspectCommand(),
	)
	return cmd
}
