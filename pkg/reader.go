package converter

import (
	"fmt"
	"io"
)

const (
	hitsGroupName   = "Hits"
	hitEventsTable  = "events"
	hitRecordsTable = "hits"
)

// HitReader reads the raw hits of a run from an HDF5 file laid out as
//
//	/Hits/events  {evt_number, n_hits}           one row per trigger, empty ones included
//	/Hits/hits    {evt_number, col, row, adc}    hits of all events, in event order
type HitReader struct {
	Filename  string
	Skip      int
	MaxEvents int
	Verbosity int

	events   []HitEventHDF5
	hits     []RawHitHDF5
	evtCount int
	hitPos   int
}

func NewHitReader(filename string, skip, maxEvents int) (*HitReader, error) {
	file, err := openFileReadOnly(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	group, err := file.OpenGroup(hitsGroupName)
	if err != nil {
		return nil, fmt.Errorf("error opening group %q in %s: %w", hitsGroupName, filename, err)
	}
	defer group.Close()

	events, err := readTable[HitEventHDF5](group, hitEventsTable)
	if err != nil {
		return nil, err
	}
	hits, err := readTable[RawHitHDF5](group, hitRecordsTable)
	if err != nil {
		return nil, err
	}
	return newHitReader(filename, events, hits, skip, maxEvents), nil
}

func newHitReader(filename string, events []HitEventHDF5, hits []RawHitHDF5, skip, maxEvents int) *HitReader {
	return &HitReader{
		Filename:  filename,
		Skip:      skip,
		MaxEvents: maxEvents,
		events:    events,
		hits:      hits,
		evtCount:  -1,
	}
}

func (r *HitReader) NumEvents() int {
	return len(r.events)
}

// Next returns the next event, honouring Skip and MaxEvents. Events are
// counted from the start of the file, so MaxEvents includes skipped events.
func (r *HitReader) Next() (RawEvent, error) {
	for {
		r.evtCount++
		if r.evtCount >= len(r.events) || r.evtCount >= r.MaxEvents {
			return RawEvent{}, io.EOF
		}
		header := r.events[r.evtCount]
		start := r.hitPos
		end := start + int(header.n_hits)
		if header.n_hits < 0 || end > len(r.hits) {
			return RawEvent{}, fmt.Errorf("event %d declares %d hits, only %d left in %s",
				header.evt_number, header.n_hits, len(r.hits)-start, r.Filename)
		}
		r.hitPos = end

		if r.evtCount < r.Skip {
			if r.Verbosity > 0 {
				message := fmt.Sprintf("Skipping event %d with ID %d", r.evtCount, header.evt_number)
				logger.Info(message, "hitReader")
			}
			continue
		}
		if r.Verbosity > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d", r.evtCount, header.evt_number)
			logger.Info(message, "hitReader")
		}
		return buildRawEvent(header, r.hits[start:end])
	}
}

func buildRawEvent(header HitEventHDF5, hits []RawHitHDF5) (RawEvent, error) {
	event := RawEvent{
		EventID: header.evt_number,
		Cols:    make([]int, len(hits)),
		Rows:    make([]int, len(hits)),
		ADC:     make([]float64, len(hits)),
	}
	for i, hit := range hits {
		if hit.evt_number != header.evt_number {
			return RawEvent{}, fmt.Errorf("hit %d of event %d is tagged with event %d", i, header.evt_number, hit.evt_number)
		}
		event.Cols[i] = int(hit.col)
		event.Rows[i] = int(hit.row)
		event.ADC[i] = float64(hit.adc)
	}
	return event, nil
}

// ReadClusterFile reads back the events written by Writer.
func ReadClusterFile(filename string) ([]*EventRecord, error) {
	file, err := openFileReadOnly(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	group, err := file.OpenGroup("Clusters")
	if err != nil {
		return nil, fmt.Errorf("error opening group %q in %s: %w", "Clusters", filename, err)
	}
	defer group.Close()

	events, err := readTable[EventInfoHDF5](group, "events")
	if err != nil {
		return nil, err
	}
	hits, err := readTable[HitChargeHDF5](group, "hits")
	if err != nil {
		return nil, err
	}
	clusters, err := readTable[ClusterHDF5](group, "clusters")
	if err != nil {
		return nil, err
	}

	records := make([]*EventRecord, len(events))
	hitPos, clusterPos := 0, 0
	for i, event := range events {
		record := newEventRecord(event.evt_number, 0)
		record.NCluster = event.n_cluster
		for hitPos < len(hits) && hits[hitPos].evt_number == event.evt_number {
			record.Charges = append(record.Charges, float64(hits[hitPos].vcal))
			hitPos++
		}
		for n := 0; n < int(event.n_cluster); n++ {
			if clusterPos >= len(clusters) || clusters[clusterPos].evt_number != event.evt_number {
				return nil, fmt.Errorf("event %d: expected %d clusters, found %d", event.evt_number, event.n_cluster, n)
			}
			c := clusters[clusterPos]
			record.ClusterSize = append(record.ClusterSize, c.size)
			record.ClusterX = append(record.ClusterX, float64(c.x))
			record.ClusterY = append(record.ClusterY, float64(c.y))
			record.ClusterCharge = append(record.ClusterCharge, float64(c.vcal))
			clusterPos++
		}
		records[i] = record
	}
	return records, nil
}
