package converter

import "sync"

// CalibrationCache persists the fitted calibration table between runs.
// Load reports found=false when nothing has been persisted yet.
type CalibrationCache interface {
	Load() (table *CalibrationTable, found bool, err error)
	Save(table *CalibrationTable) error
}

type MemoryCache struct {
	mu    sync.Mutex
	table *CalibrationTable
	Saves int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Load() (*CalibrationTable, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table == nil {
		return nil, false, nil
	}
	return copyTable(c.table), true, nil
}

func (c *MemoryCache) Save(table *CalibrationTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = copyTable(table)
	c.Saves++
	return nil
}

// NoCache never finds a table and discards saves.
type NoCache struct{}

func (NoCache) Load() (*CalibrationTable, bool, error) { return nil, false, nil }
func (NoCache) Save(*CalibrationTable) error           { return nil }

func copyTable(table *CalibrationTable) *CalibrationTable {
	c := NewCalibrationTable()
	for pixel, params := range table.entries {
		c.entries[pixel] = params
	}
	return c
}
