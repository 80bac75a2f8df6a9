package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	converter "github.com/pixel-tb/pxconverter/pkg"
)

const envPrefix = "PXCONV_"

// LoadConfiguration layers, from low to high precedence, the defaults, the
// YAML file (if any) and PXCONV_* environment variables.
func LoadConfiguration(filename string) (converter.Configuration, error) {
	config := converter.DefaultConfiguration()

	k := koanf.New(".")
	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, err
		}
	}

	// PXCONV_FILE_IN -> file_in
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, err
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return config, err
	}
	return config, validateConfiguration(config)
}

func validateConfiguration(config converter.Configuration) error {
	if _, err := converter.ParseMissingCalibrationPolicy(config.MissingCalibration); err != nil {
		return err
	}
	switch config.CacheBackend {
	case converter.CacheBackendHDF5, converter.CacheBackendMySQL, converter.CacheBackendNone:
	default:
		return fmt.Errorf("invalid cache backend: %q", config.CacheBackend)
	}
	if config.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", config.NumWorkers)
	}
	if config.FitMin >= config.FitMax {
		return fmt.Errorf("fit range [%v, %v) is empty", config.FitMin, config.FitMax)
	}
	if config.CompressionLevel < 0 || config.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be in [0, 9], got %d", config.CompressionLevel)
	}
	return nil
}

// resolvePaths fills the output and calibration paths derived from the input file.
func resolvePaths(config *converter.Configuration) {
	if config.FileIn == "" {
		return
	}
	if config.FileOut == "" {
		config.FileOut = converter.DefaultOutputFile(config.FileIn)
	}
	if config.CalibrationFile == "" {
		config.CalibrationFile = converter.DefaultCalibrationFile(config.FileIn)
	}
}

func printConfiguration(config converter.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Calibration file: %s", config.CalibrationFile), "config")
	logger.Info(fmt.Sprintf("Cache backend: %s", config.CacheBackend), "config")
	logger.Info(fmt.Sprintf("Cache file: %s", config.CacheFile), "config")
	logger.Info(fmt.Sprintf("Calibration tag: %s", config.CalibrationTag), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Discard: %t", config.Discard), "config")
	logger.Info(fmt.Sprintf("Missing calibration: %s", config.MissingCalibration), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Fit range: [%v, %v)", config.FitMin, config.FitMax), "config")
	logger.Info(fmt.Sprintf("Metrics file: %s", config.MetricsFile), "config")
}
