package converter

import (
	"errors"
	"fmt"
	"io"
	"math"
)

type MissingCalibrationPolicy string

const (
	SkipHitOnMissing   MissingCalibrationPolicy = "skip-hit"
	SkipEventOnMissing MissingCalibrationPolicy = "skip-event"
	AbortOnMissing     MissingCalibrationPolicy = "abort"
)

func ParseMissingCalibrationPolicy(s string) (MissingCalibrationPolicy, error) {
	switch p := MissingCalibrationPolicy(s); p {
	case SkipHitOnMissing, SkipEventOnMissing, AbortOnMissing:
		return p, nil
	}
	return "", fmt.Errorf("invalid missing calibration policy: %q", s)
}

// EventSource yields events in order and io.EOF after the last one.
type EventSource interface {
	Next() (RawEvent, error)
}

type Sink interface {
	WriteEvent(record *EventRecord) error
	Close() error
}

type Pipeline struct {
	Resolver ChargeResolver
	Missing  MissingCalibrationPolicy
	// Discard drops events with malformed hit sequences instead of aborting the run
	Discard   bool
	Verbosity int
	Metrics   *Metrics
}

type RunSummary struct {
	EventsRead      int
	EventsWritten   int
	EventsDiscarded int
}

// ProcessEvent converts one event: resolve the charge of every hit, cluster
// the hits and extract the per cluster observables.
func (p *Pipeline) ProcessEvent(event RawEvent) (*EventRecord, error) {
	nHits := len(event.Cols)
	if len(event.Rows) != nHits || len(event.ADC) != nHits {
		return nil, &InputShapeError{
			EventID: event.EventID,
			NCols:   len(event.Cols),
			NRows:   len(event.Rows),
			NADC:    len(event.ADC),
		}
	}

	record := newEventRecord(event.EventID, nHits)
	hits := make([]Hit, 0, nHits)
	for i := 0; i < nHits; i++ {
		col, row := event.Cols[i], event.Rows[i]
		charge, err := p.Resolver.Resolve(col, row, event.ADC[i])
		if err != nil {
			var missing *MissingCalibrationError
			if errors.As(err, &missing) && p.Missing == SkipHitOnMissing {
				p.Metrics.observeSkippedHit()
				if p.Verbosity > 1 {
					message := fmt.Sprintf("Event %d: skipping hit, %v", event.EventID, err)
					logger.Info(message, "pipeline")
				}
				continue
			}
			return nil, fmt.Errorf("event %d: %w", event.EventID, err)
		}
		hits = append(hits, Hit{X: col, Y: row, Charge: charge})
		record.Charges = append(record.Charges, charge)
	}

	clusters := Clusterize(hits)
	record.NCluster = uint16(len(clusters))
	for i := range clusters {
		cluster := &clusters[i]
		x, y, err := cluster.Centroid()
		if err != nil {
			p.Metrics.observeZeroCharge()
			if p.Verbosity > 0 {
				message := fmt.Sprintf("Event %d cluster %d: %v", event.EventID, i, err)
				logger.Info(message, "pipeline")
			}
			x, y = math.NaN(), math.NaN()
		}
		record.ClusterSize = append(record.ClusterSize, uint16(cluster.Size()))
		record.ClusterX = append(record.ClusterX, x)
		record.ClusterY = append(record.ClusterY, y)
		record.ClusterCharge = append(record.ClusterCharge, cluster.Charge())
	}
	p.Metrics.observeEvent(record)
	return record, nil
}

// Run converts every event of src, one at a time, and writes the records to sink.
func (p *Pipeline) Run(src EventSource, sink Sink) (RunSummary, error) {
	var summary RunSummary
	for {
		event, err := src.Next()
		if err != nil {
			if err == io.EOF {
				return summary, nil
			}
			return summary, fmt.Errorf("error reading event: %w", err)
		}
		summary.EventsRead++

		record, err := p.ProcessEvent(event)
		if err != nil {
			if !p.discardable(err) {
				return summary, err
			}
			p.Metrics.observeDiscard()
			summary.EventsDiscarded++
			logger.Error(fmt.Sprintf("discarding event %d: %v", event.EventID, err))
			continue
		}

		if p.Verbosity > 2 {
			message := fmt.Sprintf("Event %d: %d hits, %d clusters", record.EventID, len(record.Charges), record.NCluster)
			logger.Info(message, "pipeline")
		}
		if err := sink.WriteEvent(record); err != nil {
			return summary, fmt.Errorf("error writing event %d: %w", record.EventID, err)
		}
		summary.EventsWritten++
	}
}

func (p *Pipeline) discardable(err error) bool {
	var missing *MissingCalibrationError
	if errors.As(err, &missing) {
		return p.Missing == SkipEventOnMissing
	}
	var shape *InputShapeError
	return errors.As(err, &shape) && p.Discard
}

type SliceSource struct {
	Events   []RawEvent
	position int
}

func (s *SliceSource) Next() (RawEvent, error) {
	if s.position >= len(s.Events) {
		return RawEvent{}, io.EOF
	}
	event := s.Events[s.position]
	s.position++
	return event, nil
}

type MemorySink struct {
	Records []*EventRecord
	Closed  bool
}

func (s *MemorySink) WriteEvent(record *EventRecord) error {
	s.Records = append(s.Records, record)
	return nil
}

func (s *MemorySink) Close() error {
	s.Closed = true
	return nil
}
