// Package ledger keeps a history of every computed correlation cell.
//
// correlations.jsonl is the append-only source of truth. correlations.db is
// a SQLite index rebuilt from it whenever the JSONL content hash changes.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	jsonlName = "correlations.jsonl"
	dbName    = "correlations.db"
)

// Record is one correlation value produced by a run.
type Record struct {
	RunID       string    `json:"run_id"`
	Run         string    `json:"run"`
	Mode        string    `json:"mode"`
	StopWords   bool      `json:"stop_words"`
	HumanPath   string    `json:"human_path"`
	RougePath   string    `json:"rouge_path"`
	OutputDir   string    `json:"output_dir"`
	Measure     string    `json:"measure"`
	Correlation string    `json:"correlation"`
	RougeType   string    `json:"rouge_type"`
	Length      string    `json:"length"`
	Value       *float64  `json:"value"` // nil when undefined
	N           int       `json:"n"`
	CreatedAt   time.Time `json:"created_at"`
}

// Row is one result row of an ad-hoc query.
type Row map[string]any

// RunSummary describes one recorded run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Run       string    `json:"run"`
	Mode      string    `json:"mode"`
	OutputDir string    `json:"output_dir"`
	Cells     int       `json:"cells"`
	Missing   int       `json:"missing"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is a results history stored in one directory.
type Ledger struct {
	Dir       string
	jsonlPath string
	dbPath    string
}

// Open returns the ledger in dir, creating the directory if needed.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return &Ledger{
		Dir:       dir,
		jsonlPath: filepath.Join(dir, jsonlName),
		dbPath:    filepath.Join(dir, dbName),
	}, nil
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// JSONLPath returns the path of the source-of-truth file.
func (l *Ledger) JSONLPath() string {
	return l.jsonlPath
}

// DBPath returns the path of the SQLite index.
func (l *Ledger) DBPath() string {
	return l.dbPath
}

// Append adds records to the JSONL file. The index is not touched.
func (l *Ledger) Append(records []Record) error {
	for i, r := range records {
		if r.RunID == "" {
			return fmt.Errorf("record %d: missing run id", i)
		}
	}
	return appendRecords(l.jsonlPath, records)
}

// Records returns every record in the JSONL file.
func (l *Ledger) Records() ([]Record, error) {
	return readAllRecords(l.jsonlPath)
}

// NeedsSync reports whether the index is out of date.
func (l *Ledger) NeedsSync() (bool, error) {
	current, err := computeJSONLHash(l.jsonlPath)
	if err != nil {
		return true, err
	}

	db, err := openDB(l.dbPath)
	if err != nil {
		return true, err
	}
	defer db.Close()

	if err := createTables(db); err != nil {
		return true, err
	}
	stored, err := getStoredHash(db)
	if err != nil {
		return true, err
	}
	return current != stored, nil
}

// Sync rebuilds the index from the JSONL file and returns the number of
// records indexed.
func (l *Ledger) Sync() (int, error) {
	records, err := readAllRecords(l.jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading records: %w", err)
	}
	hash, err := computeJSONLHash(l.jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("computing hash: %w", err)
	}

	db, err := openDB(l.dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := createTables(db); err != nil {
		return 0, err
	}
	if err := rebuild(db, records); err != nil {
		return 0, fmt.Errorf("rebuilding index: %w", err)
	}
	if err := setStoredHash(db, hash); err != nil {
		return 0, fmt.Errorf("updating hash: %w", err)
	}
	if err := setLastSyncTime(db, time.Now()); err != nil {
		return 0, fmt.Errorf("updating sync time: %w", err)
	}
	return len(records), nil
}

// Query runs a SQL query against the index, syncing it first if needed.
func (l *Ledger) Query(query string) ([]Row, error) {
	if err := l.ensureSynced(); err != nil {
		return nil, err
	}
	db, err := openDB(l.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Runs lists recorded runs, oldest first.
func (l *Ledger) Runs() ([]RunSummary, error) {
	if err := l.ensureSynced(); err != nil {
		return nil, err
	}
	db, err := openDB(l.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT run_id, run, mode, output_dir, COUNT(*),
  SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END), MIN(created_at)
FROM correlations
GROUP BY run_id
ORDER BY MIN(created_at), run_id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var created string
		if err := rows.Scan(&s.RunID, &s.Run, &s.Mode, &s.OutputDir, &s.Cells, &s.Missing, &created); err != nil {
			return nil, err
		}
		s.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", s.RunID, created, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *Ledger) ensureSynced() error {
	stale, err := l.NeedsSync()
	if err != nil {
		return fmt.Errorf("checking index: %w", err)
	}
	if stale {
		if _, err := l.Sync(); err != nil {
			return err
		}
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
