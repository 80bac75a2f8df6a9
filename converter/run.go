package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	converter "github.com/pixel-tb/pxconverter/pkg"
)

func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [hits file]",
		Short: "Convert the hits of a run into clusters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				configuration.FileIn = args[0]
			}
			return runConversion()
		},
	}
}

func runConversion() error {
	resolvePaths(&configuration)
	if configuration.FileIn == "" {
		return fmt.Errorf("no input file given")
	}
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}
	policy, err := converter.ParseMissingCalibrationPolicy(configuration.MissingCalibration)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := converter.NewMetrics(registry)

	cache, closeCache, err := openCalibrationCache(configuration)
	if err != nil {
		return err
	}
	table, err := loadCalibration(cache, metrics)
	closeCache()
	if err != nil {
		return err
	}

	reader, err := converter.NewHitReader(configuration.FileIn, configuration.Skip, configuration.MaxEvents)
	if err != nil {
		message := fmt.Errorf("Error opening file: %w", err)
		logger.Error(message.Error())
		return message
	}
	reader.Verbosity = configuration.Verbosity
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Number of events: %d", reader.NumEvents()), "main")
	}

	var sink converter.Sink = &discardSink{}
	if configuration.WriteData {
		writer, err := converter.NewWriter(configuration.FileOut, configuration.CalibrationTag, configuration.CompressionLevel)
		if err != nil {
			message := fmt.Errorf("Error creating output file: %w", err)
			logger.Error(message.Error())
			return message
		}
		sink = writer
	}

	pipeline := &converter.Pipeline{
		Resolver:  converter.NewResolver(table, configuration.FitMin, configuration.FitMax),
		Missing:   policy,
		Discard:   configuration.Discard,
		Verbosity: configuration.Verbosity,
		Metrics:   metrics,
	}

	start := time.Now()
	summary, runErr := pipeline.Run(reader, sink)
	if err := sink.Close(); err != nil {
		logger.Error(fmt.Errorf("error closing output: %w", err).Error())
	}
	duration := time.Since(start)
	message := fmt.Sprintf("Events read %d, written %d, discarded %d in %d ms",
		summary.EventsRead, summary.EventsWritten, summary.EventsDiscarded, duration.Milliseconds())
	logger.Info(message, "main")

	if configuration.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(configuration.MetricsFile, registry); err != nil {
			logger.Error(fmt.Errorf("error writing metrics: %w", err).Error())
		}
	}

	if runErr != nil {
		logger.Error(runErr.Error())
	}
	return runErr
}

// discardSink is used when write_data is off.
type discardSink struct{}

func (discardSink) WriteEvent(*converter.EventRecord) error { return nil }
func (discardSink) Close() error                           { return nil }
