package main

import (
	"fmt"

	"github.com/spf13/cobra"

	converter "github.com/pixel-tb/pxconverter/pkg"
)

func NewCalibrateCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "calibrate [phCalibration file]",
		Short: "Fit the pulse height calibration of every pixel and store it in the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				configuration.CalibrationFile = args[0]
			}
			resolvePaths(&configuration)
			if configuration.CalibrationFile == "" {
				return fmt.Errorf("no calibration file given")
			}

			cache, closeCache, err := openCalibrationCache(configuration)
			if err != nil {
				return err
			}
			defer closeCache()
			if force {
				cache = rebuildCache{cache}
			}

			table, err := loadCalibration(cache, nil)
			if err != nil {
				return err
			}
			logger.Info(fmt.Sprintf("Calibration holds %d pixels", table.Len()), "main")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refit even if the cache already holds a calibration")
	return cmd
}

// openCalibrationCache returns the configured cache and a function releasing it.
func openCalibrationCache(config converter.Configuration) (converter.CalibrationCache, func(), error) {
	switch config.CacheBackend {
	case converter.CacheBackendMySQL:
		dbConn, err := converter.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return nil, nil, message
		}
		cache := converter.NewSQLCache(dbConn, config.CalibrationTag)
		cache.Verbosity = config.Verbosity
		return cache, func() { dbConn.Close() }, nil
	case converter.CacheBackendNone:
		return converter.NoCache{}, func() {}, nil
	default:
		return converter.NewHDF5Cache(config.CacheFile), func() {}, nil
	}
}

func loadCalibration(cache converter.CalibrationCache, metrics *converter.Metrics) (*converter.CalibrationTable, error) {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading calibration from %s (cache: %s)", configuration.CalibrationFile, configuration.CacheBackend)
		logger.Info(message, "main")
	}
	table, err := converter.LoadOrBuild(cache, converter.FileSource(configuration.CalibrationFile), converter.StoreOptions{
		Fit:        configuration.FitOptions(),
		NumWorkers: configuration.NumWorkers,
		Verbosity:  configuration.Verbosity,
		Metrics:    metrics,
	})
	if err != nil {
		message := fmt.Errorf("error loading calibration: %w", err)
		logger.Error(message.Error())
		return nil, message
	}
	return table, nil
}

// rebuildCache hides the stored table so that it is refitted and overwritten.
type rebuildCache struct {
	converter.CalibrationCache
}

func (rebuildCache) Load() (*converter.CalibrationTable, bool, error) {
	return nil, false, nil
}
