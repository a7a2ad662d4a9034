// Package history persists version resolutions to a local SQLite database so
// past build identities can be audited. Recording is opt-in; nothing touches
// the database unless the config enables it or --record is passed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/release"
	_ "modernc.org/sqlite"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS resolutions (
    resolution_id  INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id         TEXT NOT NULL,
    project        TEXT NOT NULL,
    name           TEXT NOT NULL,
    major          INTEGER NOT NULL,
    minor          INTEGER NOT NULL,
    micro          INTEGER NOT NULL,
    build          INTEGER NOT NULL,
    source         TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolutions_project ON resolutions(project);
CREATE INDEX IF NOT EXISTS idx_resolutions_created ON resolutions(created_at DESC);
`

// Store records and reads back version resolutions.
type Store interface {
	Record(ctx context.Context, in RecordInput) (int64, error)
	Recent(ctx context.Context, project string, limit int) ([]Entry, error)
	Clear(ctx context.Context, project string) (int64, error)
	Close() error
}

// RecordInput is the payload saved for one resolution.
type RecordInput struct {
	RunID   string
	Project string
	Info    release.Info
}

// Entry is a stored resolution.
type Entry struct {
	ID        int64
	RunID     string
	Project   string
	Name      string
	Numbers   [4]int
	Source    string
	CreatedAt time.Time
}

// Open creates or opens the SQLite store at dbPath. A leading ~ expands to
// the user's home directory.
func Open(dbPath string) (Store, error) {
	resolved, err := ResolvePath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, apperr.Wrap("history.Open", apperr.Internal, err, "create db directory")
	}

	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, apperr.Wrap("history.Open", apperr.Unavailable, err, "open sqlite db")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, apperr.Wrap("history.Open", apperr.Internal, err, "migrate schema")
	}

	return &store{db: db, dbPath: resolved}, nil
}

type store struct {
	db     *sql.DB
	dbPath string
}

// ResolvePath expands a leading ~ to the user's home directory and cleans
// the result. Callers that only need to know whether a database exists use
// this instead of Open, which would create one.
func ResolvePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", apperr.New("history.Open", apperr.InvalidInput, "history path is empty")
	}
	if strings.HasPrefix(p, "~/") || p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", apperr.Wrap("history.Open", apperr.Internal, err, "resolve home dir")
		}
		if p == "~" {
			p = home
		} else {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(p), nil
}

func (s *store) Record(ctx context.Context, in RecordInput) (int64, error) {
	if in.Project == "" {
		return 0, apperr.New("history.Record", apperr.InvalidInput, "project is required")
	}
	if in.Info.Name == "" {
		return 0, apperr.New("history.Record", apperr.InvalidInput, "resolution name is required")
	}
	if in.RunID == "" {
		in.RunID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (run_id, project, name, major, minor, micro, build, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.RunID, in.Project, in.Info.Name,
		in.Info.Numbers[0], in.Info.Numbers[1], in.Info.Numbers[2], in.Info.Numbers[3],
		string(in.Info.Source), time.Now().UTC())
	if err != nil {
		return 0, apperr.Wrap("history.Record", apperr.Internal, err, "insert resolution")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap("history.Record", apperr.Internal, err, "last insert id")
	}
	return id, nil
}

func (s *store) Recent(ctx context.Context, project string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT resolution_id, run_id, project, name, major, minor, micro, build, source, created_at
		FROM resolutions
	`
	args := []any{}
	if project != "" {
		query += " WHERE project=?"
		args = append(args, project)
	}
	query += " ORDER BY resolution_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap("history.Recent", apperr.Internal, err, "query resolutions")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Project, &e.Name,
			&e.Numbers[0], &e.Numbers[1], &e.Numbers[2], &e.Numbers[3],
			&e.Source, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap("history.Recent", apperr.Internal, err, "scan resolution")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap("history.Recent", apperr.Internal, err, "iterate resolutions")
	}
	return entries, nil
}

func (s *store) Clear(ctx context.Context, project string) (int64, error) {
	query := "DELETE FROM resolutions"
	args := []any{}
	if project != "" {
		query += " WHERE project=?"
		args = append(args, project)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperr.Wrap("history.Clear", apperr.Internal, err, "delete resolutions")
	}
	return res.RowsAffected()
}

func (s *store) Close() error {
	return s.db.Close()
}
