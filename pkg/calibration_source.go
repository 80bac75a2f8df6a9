package converter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CalibrationSource is the content of a pulse height calibration file
// (phCalibration_C<n>.dat): the injected charges and, per pixel, the
// measured ADC response at each of them.
type CalibrationSource struct {
	Charges []float64
	Pixels  []PixelResponse
}

type PixelResponse struct {
	Pixel Pixel
	ADC   []float64
}

const pixelMarker = "Pix"

// ParseCalibrationSource reads the text format:
//
//	<ignored title>
//	Low range:  50 100 150 ...
//	High range: 50 100 ...
//	<ignored>
//	  12   40  ...   Pix 0 0
//
// High range charges are scaled by HighRangeFactor.
func ParseCalibrationSource(r io.Reader) (*CalibrationSource, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	nextLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNumber++
		return scanner.Text(), true
	}

	if _, ok := nextLine(); !ok {
		return nil, sourceError(lineNumber, scanner.Err(), errors.New("empty calibration source"))
	}
	lowLine, ok := nextLine()
	if !ok {
		return nil, sourceError(lineNumber, scanner.Err(), errors.New("missing low range header"))
	}
	low, err := parseRangeHeader(lowLine)
	if err != nil {
		return nil, &CalibrationSourceError{Line: lineNumber, Err: err}
	}
	highLine, ok := nextLine()
	if !ok {
		return nil, sourceError(lineNumber, scanner.Err(), errors.New("missing high range header"))
	}
	high, err := parseRangeHeader(highLine)
	if err != nil {
		return nil, &CalibrationSourceError{Line: lineNumber, Err: err}
	}

	source := &CalibrationSource{
		Charges: make([]float64, 0, len(low)+len(high)),
	}
	for _, v := range low {
		source.Charges = append(source.Charges, float64(v))
	}
	for _, v := range high {
		source.Charges = append(source.Charges, float64(v*HighRangeFactor))
	}

	// Separator line between the headers and the pixel block
	nextLine()

	seen := make(map[Pixel]bool)
	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		response, err := parsePixelLine(line, len(source.Charges))
		if err != nil {
			return nil, &CalibrationSourceError{Line: lineNumber, Err: err}
		}
		if seen[response.Pixel] {
			return nil, &CalibrationSourceError{Line: lineNumber,
				Err: fmt.Errorf("duplicate pixel (%d, %d)", response.Pixel.Col, response.Pixel.Row)}
		}
		seen[response.Pixel] = true
		source.Pixels = append(source.Pixels, response)
	}
	if err := scanner.Err(); err != nil {
		return nil, &CalibrationSourceError{Line: lineNumber, Err: err}
	}
	return source, nil
}

func sourceError(line int, scanErr error, fallback error) error {
	if scanErr != nil {
		return &CalibrationSourceError{Line: line, Err: scanErr}
	}
	return &CalibrationSourceError{Line: line, Err: fallback}
}

func parseRangeHeader(line string) ([]int, error) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return nil, fmt.Errorf("range header %q has no ':'", line)
	}
	return parseInts(strings.Fields(line[idx+1:]))
}

func parsePixelLine(line string, nCharges int) (PixelResponse, error) {
	idx := strings.LastIndex(line, pixelMarker)
	if idx < 0 {
		return PixelResponse{}, fmt.Errorf("missing %q marker", pixelMarker)
	}
	coords, err := parseInts(strings.Fields(line[idx+len(pixelMarker):]))
	if err != nil {
		return PixelResponse{}, err
	}
	if len(coords) != 2 {
		return PixelResponse{}, fmt.Errorf("expected column and row after %q, got %d values", pixelMarker, len(coords))
	}
	col, row := coords[0], coords[1]
	if col < 0 || col >= NCols || row < 0 || row >= NRows {
		return PixelResponse{}, fmt.Errorf("pixel (%d, %d) outside %dx%d ROC", col, row, NCols, NRows)
	}

	values, err := parseInts(strings.Fields(line[:idx]))
	if err != nil {
		return PixelResponse{}, err
	}
	if len(values) != nCharges {
		return PixelResponse{}, fmt.Errorf("pixel (%d, %d) has %d ADC values, expected %d", col, row, len(values), nCharges)
	}
	adc := make([]float64, len(values))
	for i, v := range values {
		adc[i] = float64(v)
	}
	return PixelResponse{Pixel: Pixel{Col: col, Row: row}, ADC: adc}, nil
}

func parseInts(fields []string) ([]int, error) {
	values := make([]int, len(fields))
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", field, err)
		}
		values[i] = v
	}
	return values, nil
}
