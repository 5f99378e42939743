package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contractmap/internal/graph"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under concurrent saves
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			source TEXT,
			root_name TEXT,
			dialect TEXT,
			direction TEXT,
			node_count INTEGER,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			analysis_id TEXT,
			id TEXT,
			parent_id TEXT,
			position INTEGER,
			depth INTEGER,
			path TEXT,
			name TEXT,
			scope TEXT,
			action TEXT,
			kind TEXT,
			PRIMARY KEY (analysis_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_analysis ON nodes(analysis_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnalysis writes the snapshot in one transaction. An existing snapshot
// with the same id is replaced.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *Analysis) (string, error) {
	if a == nil || a.Root == nil {
		return "", fmt.Errorf("analysis has no hierarchy")
	}
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	flat := graph.Flatten(a.Source, a.Root)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE analysis_id = ?`, id); err != nil {
		return "", fmt.Errorf("failed to clear nodes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analyses (id, source, root_name, dialect, direction, node_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source,
			root_name=excluded.root_name,
			dialect=excluded.dialect,
			direction=excluded.direction,
			node_count=excluded.node_count,
			created_at=excluded.created_at
	`, id, a.Source, a.Root.Name, a.Dialect, a.Direction, len(flat), created.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to save analysis: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (analysis_id, id, parent_id, position, depth, path, name, scope, action, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, n := range flat {
		if _, err := stmt.ExecContext(ctx, id, n.ID, n.ParentID, n.Position, n.Depth, n.Path, n.Name,
			string(n.Scope), string(n.Action), string(n.Kind)); err != nil {
			return "", fmt.Errorf("failed to save node %s: %w", n.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) LoadAnalysis(ctx context.Context, id string) (*Analysis, error) {
	a := &Analysis{ID: id}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, dialect, direction, created_at FROM analyses WHERE id = ?`, id,
	).Scan(&a.Source, &a.Dialect, &a.Direction, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("bad created_at for %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, position, depth, path, name, scope, action, kind
		FROM nodes WHERE analysis_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var flat []graph.FlatNode
	for rows.Next() {
		var n graph.FlatNode
		var scope, action, kind string
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Position, &n.Depth, &n.Path, &n.Name, &scope, &action, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if n.Scope, err = graph.ParseScope(scope); err != nil {
			return nil, err
		}
		if n.Action, err = graph.ParseAction(action); err != nil {
			return nil, err
		}
		if kind != "" {
			if n.Kind, err = graph.ParseConnectionKind(kind); err != nil {
				return nil, err
			}
		}
		flat = append(flat, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if a.Root, err = graph.Rebuild(flat); err != nil {
		return nil, fmt.Errorf("failed to rebuild analysis %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context) ([]AnalysisSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, root_name, dialect, direction, node_count, created_at
		FROM analyses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var a AnalysisSummary
		var created string
		if err := rows.Scan(&a.ID, &a.Source, &a.RootName, &a.Dialect, &a.Direction, &a.NodeCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("bad created_at for %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE analysis_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
