package converter

import (
	"errors"
	"fmt"
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// CalibrationSourceError is returned when the raw calibration file cannot be parsed.
// It is fatal: no calibration table is produced.
type CalibrationSourceError struct {
	Line int
	Err  error
}

func (e *CalibrationSourceError) Error() string {
	return fmt.Sprintf("malformed calibration source at line %d: %v", e.Line, e.Err)
}

func (e *CalibrationSourceError) Unwrap() error { return e.Err }

// MissingCalibrationError is returned when a pixel has no calibration entry.
type MissingCalibrationError struct {
	Col int
	Row int
}

func (e *MissingCalibrationError) Error() string {
	return fmt.Sprintf("no calibration for pixel (%d, %d)", e.Col, e.Row)
}

// ZeroChargeError is returned when the centroid of a cluster with zero total charge is requested.
type ZeroChargeError struct {
	Size int
}

func (e *ZeroChargeError) Error() string {
	return fmt.Sprintf("cluster of size %d has zero total charge, centroid undefined", e.Size)
}

// InputShapeError is returned when the per-event column, row and ADC sequences differ in length.
type InputShapeError struct {
	EventID int32
	NCols   int
	NRows   int
	NADC    int
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("event %d: mismatched hit sequences (cols %d, rows %d, adc %d)",
		e.EventID, e.NCols, e.NRows, e.NADC)
}

var ErrTooFewPoints = errors.New("too few points to fit")
