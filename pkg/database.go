package converter

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type PixelCalibrationEntry struct {
	Tag string  `db:"Tag"`
	Col int     `db:"Col"`
	Row int     `db:"Row"`
	P0  float64 `db:"P0"`
	P1  float64 `db:"P1"`
	P2  float64 `db:"P2"`
	P3  float64 `db:"P3"`
}

const (
	selectCalibrationQuery = "SELECT Tag, Col, `Row`, P0, P1, P2, P3 FROM PixelCalibration WHERE Tag = ?"
	deleteCalibrationQuery = "DELETE FROM PixelCalibration WHERE Tag = ?"
	insertCalibrationQuery = "INSERT INTO PixelCalibration (Tag, Col, `Row`, P0, P1, P2, P3) " +
		"VALUES (:Tag, :Col, :Row, :P0, :P1, :P2, :P3)"
)

// insertBatchSize keeps each multi-row insert under the MySQL placeholder limit
const insertBatchSize = 1000

// SQLCache stores the calibration table in the PixelCalibration table.
// Rows are namespaced by Tag, one tag per calibration dataset.
type SQLCache struct {
	DB        *sqlx.DB
	Tag       string
	Verbosity int
}

func NewSQLCache(db *sqlx.DB, tag string) *SQLCache {
	return &SQLCache{DB: db, Tag: tag}
}

func (c *SQLCache) Load() (*CalibrationTable, bool, error) {
	if c.Verbosity > 0 {
		message := fmt.Sprintf("Reading pixel calibration %q from database", c.Tag)
		logger.Info(message, "database")
	}
	if c.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", selectCalibrationQuery)
		logger.Info(message, "database")
	}

	rows, err := c.DB.Queryx(selectCalibrationQuery, c.Tag)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, false, errMessage
	}
	defer rows.Close()

	entries := make([]PixelCalibrationEntry, 0)
	for rows.Next() {
		result := PixelCalibrationEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, false, errMessage
		}
		entries = append(entries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error reading DB rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entriesToTable(entries), true, nil
}

// Save replaces all the rows of the cache tag in a single transaction.
func (c *SQLCache) Save(table *CalibrationTable) error {
	entries := tableToEntries(table, c.Tag)

	tx, err := c.DB.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if _, err := tx.Exec(deleteCalibrationQuery, c.Tag); err != nil {
		tx.Rollback()
		return fmt.Errorf("error clearing calibration %q: %w", c.Tag, err)
	}
	for start := 0; start < len(entries); start += insertBatchSize {
		end := min(start+insertBatchSize, len(entries))
		if _, err := tx.NamedExec(insertCalibrationQuery, entries[start:end]); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting calibration rows: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing calibration %q: %w", c.Tag, err)
	}
	if c.Verbosity > 0 {
		message := fmt.Sprintf("Stored %d pixel calibrations as %q", len(entries), c.Tag)
		logger.Info(message, "database")
	}
	return nil
}

func tableToEntries(table *CalibrationTable, tag string) []PixelCalibrationEntry {
	pixels := table.Pixels()
	entries := make([]PixelCalibrationEntry, len(pixels))
	for i, pixel := range pixels {
		p, _ := table.Lookup(pixel.Col, pixel.Row)
		entries[i] = PixelCalibrationEntry{
			Tag: tag,
			Col: pixel.Col,
			Row: pixel.Row,
			P0:  p[0],
			P1:  p[1],
			P2:  p[2],
			P3:  p[3],
		}
	}
	return entries
}

func entriesToTable(entries []PixelCalibrationEntry) *CalibrationTable {
	table := NewCalibrationTable()
	for _, e := range entries {
		table.Set(e.Col, e.Row, Params{e.P0, e.P1, e.P2, e.P3})
	}
	return table
}
