package converter

import (
	"errors"
	"fmt"
	"os"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

const (
	cacheGroupName = "Calibration"
	cacheTableName = "fitpars"
)

// HDF5Cache stores the calibration table in /Calibration/fitpars of an HDF5 file.
type HDF5Cache struct {
	Filename string
}

func NewHDF5Cache(filename string) *HDF5Cache {
	return &HDF5Cache{Filename: filename}
}

func (c *HDF5Cache) Load() (*CalibrationTable, bool, error) {
	if _, err := os.Stat(c.Filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &ErrOpenFile{Filename: c.Filename, Err: err}
	}

	file, err := openFileReadOnly(c.Filename)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	group, err := file.OpenGroup(cacheGroupName)
	if err != nil {
		return nil, false, fmt.Errorf("error opening group %q in %s: %w", cacheGroupName, c.Filename, err)
	}
	defer group.Close()

	rows, err := readTable[FitParamsHDF5](group, cacheTableName)
	if err != nil {
		return nil, false, err
	}

	table := NewCalibrationTable()
	for _, row := range rows {
		table.Set(int(row.col), int(row.row), Params{row.p0, row.p1, row.p2, row.p3})
	}
	return table, true, nil
}

func (c *HDF5Cache) Save(table *CalibrationTable) error {
	file, err := openFile(c.Filename)
	if err != nil {
		return err
	}

	var errs []error
	if err := writeFitParams(file, table); err != nil {
		errs = append(errs, err)
	}
	if err := file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}

func writeFitParams(file *hdf5.File, table *CalibrationTable) error {
	group, err := createGroup(file, cacheGroupName)
	if err != nil {
		return err
	}
	defer group.Close()

	dset, err := createTable(group, cacheTableName, FitParamsHDF5{}, 0)
	if err != nil {
		return err
	}
	defer dset.Close()

	pixels := table.Pixels()
	rows := make([]FitParamsHDF5, len(pixels))
	for i, pixel := range pixels {
		p, _ := table.Lookup(pixel.Col, pixel.Row)
		rows[i] = FitParamsHDF5{
			col: int32(pixel.Col),
			row: int32(pixel.Row),
			p0:  p[0],
			p1:  p[1],
			p2:  p[2],
			p3:  p[3],
		}
	}
	return writeArrayToTable(dset, &rows, 0)
}
