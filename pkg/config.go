package converter

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Configuration struct {
	FileIn             string  `koanf:"file_in"`
	FileOut            string  `koanf:"file_out"`
	CalibrationFile    string  `koanf:"calibration_file"`
	CacheBackend       string  `koanf:"cache_backend"`
	CacheFile          string  `koanf:"cache_file"`
	CalibrationTag     string  `koanf:"calibration_tag"`
	MaxEvents          int     `koanf:"max_events"`
	Skip               int     `koanf:"skip"`
	Verbosity          int     `koanf:"verbosity"`
	Discard            bool    `koanf:"discard"`
	MissingCalibration string  `koanf:"missing_calibration"`
	Host               string  `koanf:"host"`
	User               string  `koanf:"user"`
	Passwd             string  `koanf:"pass"`
	DBName             string  `koanf:"dbname"`
	NumWorkers         int     `koanf:"num_workers"`
	WriteData          bool    `koanf:"write_data"`
	CompressionLevel   int     `koanf:"compression_level"`
	FitMin             float64 `koanf:"fit_min"`
	FitMax             float64 `koanf:"fit_max"`
	MetricsFile        string  `koanf:"metrics_file"`
}

const (
	CacheBackendHDF5  = "hdf5"
	CacheBackendMySQL = "mysql"
	CacheBackendNone  = "none"
)

func DefaultConfiguration() Configuration {
	return Configuration{
		CacheBackend:       CacheBackendHDF5,
		CacheFile:          "fitpars.h5",
		CalibrationTag:     "default",
		MaxEvents:          1000000000,
		Skip:               0,
		Verbosity:          0,
		Discard:            true,
		MissingCalibration: string(AbortOnMissing),
		Host:               "localhost",
		User:               "pxreader",
		Passwd:             "readonly",
		DBName:             "PXAR",
		NumWorkers:         1,
		WriteData:          true,
		CompressionLevel:   4,
		FitMin:             FitDomainMin,
		FitMax:             FitDomainMax,
	}
}

// FitOptions returns the fit settings carried by the configuration.
func (c Configuration) FitOptions() FitOptions {
	opts := DefaultFitOptions()
	opts.Min = c.FitMin
	opts.Max = c.FitMax
	return opts
}

const calibrationSourceName = "phCalibration_C0.dat"

// DefaultOutputFile names the output after the run number of the input,
// data/run_123.h5 -> data/Clustered_123.h5
func DefaultOutputFile(fileIn string) string {
	base := filepath.Base(fileIn)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(base, "_")
	return filepath.Join(filepath.Dir(fileIn), fmt.Sprintf("Clustered_%s.h5", parts[len(parts)-1]))
}

// DefaultCalibrationFile is the calibration of ROC 0, one directory above the
// directory holding the run: <test>/data/run_123.h5 -> <test>/phCalibration_C0.dat
func DefaultCalibrationFile(fileIn string) string {
	return filepath.Join(filepath.Dir(filepath.Dir(fileIn)), calibrationSourceName)
}
