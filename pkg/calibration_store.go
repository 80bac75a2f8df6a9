package converter

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// SourceOpener opens the raw calibration source. It is only called when the
// cache has nothing stored.
type SourceOpener func() (io.ReadCloser, error)

func FileSource(path string) SourceOpener {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, &ErrOpenFile{Filename: path, Err: err}
		}
		return f, nil
	}
}

type StoreOptions struct {
	Fit        FitOptions
	NumWorkers int
	Verbosity  int
	Metrics    *Metrics
}

// LoadOrBuild returns the cached calibration table if one was persisted.
// The cached table is not checked against the source, a stale cache is reused.
// Otherwise every pixel of the source is fitted and the full table is saved
// to the cache.
func LoadOrBuild(cache CalibrationCache, open SourceOpener, opts StoreOptions) (*CalibrationTable, error) {
	table, found, err := cache.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading calibration cache: %w", err)
	}
	if found {
		if opts.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Loaded %d pixel calibrations from cache", table.Len()), "calibration")
		}
		return table, nil
	}

	reader, err := open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	source, err := ParseCalibrationSource(reader)
	if err != nil {
		return nil, err
	}

	table = BuildCalibration(source, opts)
	if err := cache.Save(table); err != nil {
		return nil, fmt.Errorf("error saving calibration cache: %w", err)
	}
	return table, nil
}

// BuildCalibration fits all the pixels of source. Pixels whose fit fails keep
// the initial parameters.
func BuildCalibration(source *CalibrationSource, opts StoreOptions) *CalibrationTable {
	if opts.Verbosity > 0 {
		message := fmt.Sprintf("Fitting %d pixels with %d workers", len(source.Pixels), opts.NumWorkers)
		logger.Info(message, "calibration")
	}

	table := NewCalibrationTable()
	done := 0
	for result := range fitAllPixels(source, opts.Fit, opts.NumWorkers) {
		done++
		table.Set(result.Pixel.Col, result.Pixel.Row, result.Params)
		opts.Metrics.observeFit(result.Err)
		if result.Err != nil {
			if errors.Is(result.Err, ErrTooFewPoints) {
				if opts.Verbosity > 1 {
					message := fmt.Sprintf("Pixel (%d, %d): %v, keeping initial parameters",
						result.Pixel.Col, result.Pixel.Row, result.Err)
					logger.Info(message, "calibration")
				}
			} else {
				errMessage := fmt.Errorf("pixel (%d, %d) fit failed: %w", result.Pixel.Col, result.Pixel.Row, result.Err)
				logger.Error(errMessage.Error())
			}
		}
		if opts.Verbosity > 2 {
			message := fmt.Sprintf("Pixel (%d, %d) fitted %d/%d: %v",
				result.Pixel.Col, result.Pixel.Row, done, len(source.Pixels), result.Params)
			logger.Info(message, "calibration")
		}
	}
	return table
}
