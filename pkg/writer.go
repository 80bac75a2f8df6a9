package converter

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Writer stores converted events in an HDF5 file:
//
//	/Run/runInfo          {run_uuid, calib_tag}
//	/Clusters/events      {evt_number, n_cluster}
//	/Clusters/hits        {evt_number, vcal}                  one row per hit, input order
//	/Clusters/clusters    {evt_number, size, x, y, vcal}      one row per cluster, discovery order
type Writer struct {
	File          *hdf5.File
	Filename      string
	RunID         uuid.UUID
	RunGroup      *hdf5.Group
	ClustersGroup *hdf5.Group
	RunInfoTable  *hdf5.Dataset
	EventTable    *hdf5.Dataset
	HitTable      *hdf5.Dataset
	ClusterTable  *hdf5.Dataset
	EvtCounter    int
	HitCounter    int
	ClusterCount  int
}

func NewWriter(filename string, calibrationTag string, compressionLevel int) (*Writer, error) {
	logger.Info(fmt.Sprintf("hdf5writer: Creating file: %s", filename), "writer")

	writer := &Writer{Filename: filename, RunID: uuid.New()}
	var err error
	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if err := writer.createLayout(calibrationTag, compressionLevel); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	return writer, nil
}

func (w *Writer) createLayout(calibrationTag string, compressionLevel int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.ClustersGroup, err = createGroup(w.File, "Clusters"); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.ClustersGroup, "events", EventInfoHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.HitTable, err = createTable(w.ClustersGroup, "hits", HitChargeHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.ClusterTable, err = createTable(w.ClustersGroup, "clusters", ClusterHDF5{}, compressionLevel); err != nil {
		return err
	}

	runInfo := RunInfoHDF5{
		run_uuid:  convertToHdf5String(w.RunID.String()),
		calib_tag: convertToHdf5String(calibrationTag),
	}
	if err := writeEntryToTable(w.RunInfoTable, runInfo, 0); err != nil {
		return fmt.Errorf("error writing run info: %w", err)
	}
	return nil
}

func (w *Writer) WriteEvent(record *EventRecord) error {
	eventInfo := EventInfoHDF5{
		evt_number: record.EventID,
		n_cluster:  record.NCluster,
	}
	if err := writeEntryToTable(w.EventTable, eventInfo, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event table: %w", err)
	}

	hits := make([]HitChargeHDF5, len(record.Charges))
	for i, charge := range record.Charges {
		hits[i] = HitChargeHDF5{evt_number: record.EventID, vcal: float32(charge)}
	}
	if err := writeArrayToTable(w.HitTable, &hits, w.HitCounter); err != nil {
		return fmt.Errorf("error writing hit table: %w", err)
	}

	clusters := make([]ClusterHDF5, len(record.ClusterSize))
	for i := range record.ClusterSize {
		clusters[i] = ClusterHDF5{
			evt_number: record.EventID,
			size:       record.ClusterSize[i],
			x:          float32(record.ClusterX[i]),
			y:          float32(record.ClusterY[i]),
			vcal:       float32(record.ClusterCharge[i]),
		}
	}
	if err := writeArrayToTable(w.ClusterTable, &clusters, w.ClusterCount); err != nil {
		return fmt.Errorf("error writing cluster table: %w", err)
	}

	w.EvtCounter++
	w.HitCounter += len(hits)
	w.ClusterCount += len(clusters)
	return nil
}

func (w *Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file hdf writer %s", w.Filename), "writer")
	var errs []error

	closers := []struct {
		name   string
		closer interface{ Close() error }
	}{
		{"run info table", w.RunInfoTable},
		{"event table", w.EventTable},
		{"hit table", w.HitTable},
		{"cluster table", w.ClusterTable},
		{"run group", w.RunGroup},
		{"clusters group", w.ClustersGroup},
	}
	for _, c := range closers {
		if isNilCloser(c.closer) {
			continue
		}
		if err := c.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", c.name, err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func isNilCloser(c interface{ Close() error }) bool {
	switch v := c.(type) {
	case *hdf5.Dataset:
		return v == nil
	case *hdf5.Group:
		return v == nil
	}
	return c == nil
}

// WriteHitFile stores raw events in the layout read by HitReader.
func WriteHitFile(filename string, events []RawEvent) error {
	file, err := openFile(filename)
	if err != nil {
		return err
	}

	var errs []error
	if err := writeHits(file, events); err != nil {
		errs = append(errs, err)
	}
	if err := file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}

func writeHits(file *hdf5.File, events []RawEvent) error {
	group, err := createGroup(file, hitsGroupName)
	if err != nil {
		return err
	}
	defer group.Close()

	eventTable, err := createTable(group, hitEventsTable, HitEventHDF5{}, 0)
	if err != nil {
		return err
	}
	defer eventTable.Close()
	hitTable, err := createTable(group, hitRecordsTable, RawHitHDF5{}, 0)
	if err != nil {
		return err
	}
	defer hitTable.Close()

	headers := make([]HitEventHDF5, 0, len(events))
	hits := make([]RawHitHDF5, 0)
	for _, event := range events {
		if len(event.Rows) != len(event.Cols) || len(event.ADC) != len(event.Cols) {
			return &InputShapeError{EventID: event.EventID, NCols: len(event.Cols), NRows: len(event.Rows), NADC: len(event.ADC)}
		}
		headers = append(headers, HitEventHDF5{evt_number: event.EventID, n_hits: int32(len(event.Cols))})
		for i := range event.Cols {
			hits = append(hits, RawHitHDF5{
				evt_number: event.EventID,
				col:        int32(event.Cols[i]),
				row:        int32(event.Rows[i]),
				adc:        int32(event.ADC[i]),
			})
		}
	}
	if err := writeArrayToTable(eventTable, &headers, 0); err != nil {
		return fmt.Errorf("error writing hit events: %w", err)
	}
	if err := writeArrayToTable(hitTable, &hits, 0); err != nil {
		return fmt.Errorf("error writing hits: %w", err)
	}
	return nil
}
