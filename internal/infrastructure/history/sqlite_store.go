// Package history persists attempt audit records in SQLite.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// SQLiteStore records one row per attempt in ~/.shex/history/attempts.db.
// It is the audit sink for the loop: writes are best-effort and callers
// treat failures as non-fatal.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the attempts database at path. An empty
// path resolves to the default location under the user's home directory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join(userHome(), ".shex", "history", "attempts.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		seq INTEGER,
		timestamp TEXT,
		request TEXT,
		prompt TEXT,
		command TEXT,
		rationale TEXT,
		tier TEXT,
		outcome TEXT,
		exit_code INTEGER,
		detail TEXT,
		duration_ms INTEGER
	);`)
	return err
}

// Record implements ports.AttemptSink.
func (s *SQLiteStore) Record(record domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO attempts
		(run_id, seq, timestamp, request, prompt, command, rationale, tier, outcome, exit_code, detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Seq,
		record.Timestamp.Format(domain.TimestampFormat),
		record.Request,
		record.Prompt,
		record.Command,
		record.Rationale,
		string(record.Tier),
		string(record.Outcome),
		record.ExitCode,
		record.Detail,
		record.DurationMS,
	)
	return err
}

// Records returns attempt entries, newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.AttemptRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT run_id, seq, timestamp, request, prompt, command, rationale, tier, outcome, exit_code, detail, duration_ms FROM attempts")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE request LIKE ? OR command LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC, seq DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.AttemptRecord
	for rows.Next() {
		var rec domain.AttemptRecord
		var ts, tier, outcome string
		if err := rows.Scan(&rec.RunID, &rec.Seq, &ts, &rec.Request, &rec.Prompt, &rec.Command, &rec.Rationale, &tier, &outcome, &rec.ExitCode, &rec.Detail, &rec.DurationMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(domain.TimestampFormat, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Tier = domain.RiskTier(tier)
		rec.Outcome = domain.OutcomeKind(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all attempt entries.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM attempts")
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func userHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var (
	_ ports.AttemptSink   = (*SQLiteStore)(nil)
	_ ports.HistoryReader = (*SQLiteStore)(nil)
)
