// Package runstore persists relval run records in a relational database.
// It supports SQLite (default), MySQL and PostgreSQL backends.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// runsTable is the single table of the run-history schema.
const runsTable = "relval_runs"

// Store implements the HistoryStore interface on database/sql.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	// location is the DB file path (SQLite) or connection string otherwise.
	location string
}

var _ contract.HistoryStore = &Store{} // Compile-time check

// Open connects to the configured history backend and ensures the schema
// exists. The caller owns the returned store and must Close it.
func Open(cfg *contract.Config) (*Store, error) {
	return openBackend(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

func openBackend(backend schema.DatabaseBackend, connStr string) (*Store, error) {
	var db *sql.DB
	var err error
	location := connStr

	switch backend {
	case schema.SQLiteBackend:
		if location == "" {
			location = contract.GetHistoryDBFilePath()
		}
		db, err = sql.Open("sqlite", location)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", location, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}

	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	if _, err := db.Exec(createRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", runsTable, err)
	}

	return &Store{db: db, backend: backend, location: location}, nil
}

// createRunsQuery returns the CREATE TABLE query for relval_runs.
func createRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				input1 TEXT NOT NULL,
				input2 TEXT NOT NULL,
				output_dir TEXT NOT NULL,
				total_tasks INT NOT NULL DEFAULT 0,
				failed_tasks INT NOT NULL DEFAULT 0,
				severity_counts TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				input1 TEXT NOT NULL,
				input2 TEXT NOT NULL,
				output_dir TEXT NOT NULL,
				total_tasks INT NOT NULL DEFAULT 0,
				failed_tasks INT NOT NULL DEFAULT 0,
				severity_counts TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				input1 TEXT NOT NULL,
				input2 TEXT NOT NULL,
				output_dir TEXT NOT NULL,
				total_tasks INTEGER NOT NULL DEFAULT 0,
				failed_tasks INTEGER NOT NULL DEFAULT 0,
				severity_counts TEXT
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run record and returns its unique ID.
func (s *Store) BeginRun(startTime time.Time, input1, input2, outputDir string) (int64, error) {
	quotedTableName := quoteTableName(runsTable, s.backend)

	var runID int64
	var err error
	switch s.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, input1, input2, output_dir) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = s.db.QueryRow(query, startTime, input1, input2, outputDir).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, input1, input2, output_dir) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = s.db.Exec(query, formatTime(startTime, s.backend), input1, input2, outputDir)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run record: %w", err)
	}
	return runID, nil
}

// EndRun finalizes the run record with severity and task counts.
func (s *Store) EndRun(runID int64, endTime time.Time, severityCounts map[schema.Severity]int, totalTasks, failedTasks int) error {
	countsJSON, err := json.Marshal(severityCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal severity counts: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, s.backend)
	var query string
	switch s.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET end_time = $1, total_tasks = $2, failed_tasks = $3, severity_counts = $4 WHERE run_id = $5`, quotedTableName)
	default:
		query = fmt.Sprintf(`UPDATE %s SET end_time = ?, total_tasks = ?, failed_tasks = ?, severity_counts = ? WHERE run_id = ?`, quotedTableName)
	}

	result, err := s.db.Exec(query, formatTime(endTime, s.backend), totalTasks, failedTasks, string(countsJSON), runID)
	if err != nil {
		return fmt.Errorf("failed to update run record: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// ListRuns returns the most recent run records, newest first.
func (s *Store) ListRuns(limit int) ([]schema.RunRecord, error) {
	quotedTableName := quoteTableName(runsTable, s.backend)
	var query string
	switch s.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT run_id, start_time, end_time, input1, input2, output_dir, total_tasks, failed_tasks, severity_counts FROM %s ORDER BY run_id DESC LIMIT $1`, quotedTableName)
	default:
		query = fmt.Sprintf(`SELECT run_id, start_time, end_time, input1, input2, output_dir, total_tasks, failed_tasks, severity_counts FROM %s ORDER BY run_id DESC LIMIT ?`, quotedTableName)
	}

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.RunRecord
	for rows.Next() {
		record, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// scanRun reads one row into a RunRecord, handling per-backend time storage.
func (s *Store) scanRun(rows *sql.Rows) (schema.RunRecord, error) {
	var record schema.RunRecord
	var startRaw, endRaw, countsRaw sql.NullString
	var startTime, endTime sql.NullTime

	var err error
	if s.backend == schema.SQLiteBackend {
		err = rows.Scan(&record.RunID, &startRaw, &endRaw, &record.Input1, &record.Input2,
			&record.OutputDir, &record.TotalTasks, &record.FailedTasks, &countsRaw)
	} else {
		err = rows.Scan(&record.RunID, &startTime, &endTime, &record.Input1, &record.Input2,
			&record.OutputDir, &record.TotalTasks, &record.FailedTasks, &countsRaw)
	}
	if err != nil {
		return record, fmt.Errorf("failed to scan run record: %w", err)
	}

	if s.backend == schema.SQLiteBackend {
		if record.StartTime, err = parseStoredTime(startRaw.String); err != nil {
			return record, err
		}
		if endRaw.Valid && endRaw.String != "" {
			t, err := parseStoredTime(endRaw.String)
			if err != nil {
				return record, err
			}
			record.EndTime = &t
		}
	} else {
		record.StartTime = startTime.Time
		if endTime.Valid {
			t := endTime.Time
			record.EndTime = &t
		}
	}

	if countsRaw.Valid && countsRaw.String != "" {
		if err := json.Unmarshal([]byte(countsRaw.String), &record.SeverityCounts); err != nil {
			return record, fmt.Errorf("failed to parse severity counts for run %d: %w", record.RunID, err)
		}
	}
	return record, nil
}

// GetStatus returns status information about the store.
func (s *Store) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{Backend: s.backend, Location: s.location}
	quotedTableName := quoteTableName(runsTable, s.backend)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	if err := s.db.QueryRow(countQuery).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to count runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedTableName)
		var last time.Time
		if s.backend == schema.SQLiteBackend {
			var raw string
			if err := s.db.QueryRow(lastQuery).Scan(&raw); err != nil {
				return status, fmt.Errorf("failed to read last run time: %w", err)
			}
			t, err := parseStoredTime(raw)
			if err != nil {
				return status, err
			}
			last = t
		} else {
			if err := s.db.QueryRow(lastQuery).Scan(&last); err != nil {
				return status, fmt.Errorf("failed to read last run time: %w", err)
			}
		}
		status.LastRunAt = &last
	}

	if s.backend == schema.SQLiteBackend {
		if info, err := os.Stat(s.location); err == nil {
			status.TotalBytes = info.Size()
		}
	}
	return status, nil
}

// Clear removes all run records.
func (s *Store) Clear() error {
	query := fmt.Sprintf("DELETE FROM %s", quoteTableName(runsTable, s.backend))
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// quoteTableName quotes an identifier per backend dialect.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// formatTime converts a time to its per-backend storage representation.
// SQLite stores RFC3339Nano text; the other backends take time.Time directly.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// parseStoredTime reads the SQLite text representation back.
func parseStoredTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", raw, err)
	}
	return t, nil
}
