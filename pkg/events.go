package converter

// RawEvent is one trigger of the ROC: parallel sequences of hit column, row and ADC.
type RawEvent struct {
	EventID int32
	Cols    []int
	Rows    []int
	ADC     []float64
}

// EventRecord is the converted event. Charges follows the input hit order,
// the Cluster* slices follow cluster discovery order.
type EventRecord struct {
	EventID       int32
	NCluster      uint16
	Charges       []float64
	ClusterSize   []uint16
	ClusterX      []float64
	ClusterY      []float64
	ClusterCharge []float64
}

func newEventRecord(eventID int32, nHits int) *EventRecord {
	return &EventRecord{
		EventID:       eventID,
		Charges:       make([]float64, 0, nHits),
		ClusterSize:   make([]uint16, 0),
		ClusterX:      make([]float64, 0),
		ClusterY:      make([]float64, 0),
		ClusterCharge: make([]float64, 0),
	}
}
