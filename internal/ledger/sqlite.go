package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS correlations (
  run_id TEXT NOT NULL,
  run TEXT,
  mode TEXT,
  stop_words INTEGER,
  human_path TEXT,
  rouge_path TEXT,
  output_dir TEXT,
  measure TEXT,
  correlation TEXT,
  rouge_type TEXT,
  length TEXT,
  value REAL,
  n INTEGER,
  created_at TEXT
)`,
	"CREATE INDEX IF NOT EXISTS idx_correlations_run_id ON correlations(run_id)",
	"CREATE INDEX IF NOT EXISTS idx_correlations_cell ON correlations(measure, correlation, rouge_type, length)",
	`CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`,
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	return db, nil
}

func createTables(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

func rebuild(db *sql.DB, records []Record) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM correlations"); err != nil {
		return fmt.Errorf("clearing table: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO correlations
  (run_id, run, mode, stop_words, human_path, rouge_path, output_dir,
   measure, correlation, rouge_type, length, value, n, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		var value any
		if r.Value != nil {
			value = *r.Value
		}
		_, err := stmt.Exec(r.RunID, r.Run, r.Mode, r.StopWords, r.HumanPath, r.RougePath, r.OutputDir,
			r.Measure, r.Correlation, r.RougeType, r.Length, value, r.N,
			r.CreatedAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func getStoredHash(db *sql.DB) (string, error) {
	var hash sql.NullString
	err := db.QueryRow("SELECT value FROM _meta WHERE key = 'jsonl_hash'").Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

func setStoredHash(db *sql.DB, hash string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('jsonl_hash', ?)`, hash)
	return err
}

func setLastSyncTime(db *sql.DB, t time.Time) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('last_sync', ?)`,
		t.Format(time.RFC3339))
	return err
}

// LastSync returns when the index was last rebuilt, or the zero time.
func (l *Ledger) LastSync() (time.Time, error) {
	db, err := openDB(l.dbPath)
	if err != nil {
		return time.Time{}, err
	}
	defer db.Close()
	if err := createTables(db); err != nil {
		return time.Time{}, err
	}

	var s sql.NullString
	err = db.QueryRow("SELECT value FROM _meta WHERE key = 'last_sync'").Scan(&s)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !s.Valid) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, s.String)
}
