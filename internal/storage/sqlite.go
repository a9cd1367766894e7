package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/podsearch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		uri TEXT PRIMARY KEY,
		show_uri TEXT,
		show_name TEXT,
		name TEXT,
		description TEXT,
		publisher TEXT,
		language TEXT,
		prefix TEXT,
		duration REAL
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_prefix ON episodes(prefix);

	CREATE TABLE IF NOT EXISTS utterances (
		idx INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		episode_uri TEXT NOT NULL,
		text TEXT NOT NULL,
		start_ns INTEGER NOT NULL,
		speaker INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_utterances_episode ON utterances(episode_uri);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertEpisodes inserts or replaces episodes in one transaction.
func (s *SQLiteStorage) UpsertEpisodes(ctx context.Context, episodes []*models.Episode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO episodes (uri, show_uri, show_name, name, description, publisher, language, prefix, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range episodes {
		if _, err := stmt.ExecContext(ctx, e.URI, e.ShowURI, e.ShowName, e.Name, e.Description,
			e.Publisher, e.Language, e.Prefix, e.Duration); err != nil {
			return fmt.Errorf("insert episode %s: %w", e.URI, err)
		}
	}
	return tx.Commit()
}

// GetEpisode returns an episode by URI.
func (s *SQLiteStorage) GetEpisode(ctx context.Context, uri string) (*models.Episode, error) {
	var e models.Episode
	err := s.db.QueryRowContext(ctx,
		`SELECT uri, show_uri, show_name, name, description, publisher, language, prefix, duration
		 FROM episodes WHERE uri = ?`, uri,
	).Scan(&e.URI, &e.ShowURI, &e.ShowName, &e.Name, &e.Description, &e.Publisher, &e.Language, &e.Prefix, &e.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("episode %s: %w", uri, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ReplaceUtterances deletes every stored utterance and inserts utterances in
// one transaction.
func (s *SQLiteStorage) ReplaceUtterances(ctx context.Context, utterances []*models.Utterance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM utterances`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO utterances (idx, id, episode_uri, text, start_ns, speaker)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range utterances {
		if _, err := stmt.ExecContext(ctx, u.Index, u.ID, u.EpisodeURI, u.Text, int64(u.Start), u.Speaker); err != nil {
			return fmt.Errorf("insert utterance %d: %w", u.Index, err)
		}
	}
	return tx.Commit()
}

const utteranceColumns = `idx, id, episode_uri, text, start_ns, speaker`

type scanner interface {
	Scan(dest ...any) error
}

func scanUtterance(row scanner) (*models.Utterance, error) {
	var u models.Utterance
	var start int64
	if err := row.Scan(&u.Index, &u.ID, &u.EpisodeURI, &u.Text, &start, &u.Speaker); err != nil {
		return nil, err
	}
	u.Start = time.Duration(start)
	return &u, nil
}

// GetUtterance returns the utterance at a search space position.
func (s *SQLiteStorage) GetUtterance(ctx context.Context, index int) (*models.Utterance, error) {
	u, err := scanUtterance(s.db.QueryRowContext(ctx,
		`SELECT `+utteranceColumns+` FROM utterances WHERE idx = ?`, index))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("utterance %d: %w", index, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUtterances returns the utterances at the given positions. Missing
// positions are absent from the map.
func (s *SQLiteStorage) GetUtterances(ctx context.Context, indices []int) (map[int]*models.Utterance, error) {
	out := make(map[int]*models.Utterance, len(indices))
	if len(indices) == 0 {
		return out, nil
	}
	args := make([]any, len(indices))
	for i, idx := range indices {
		args[i] = idx
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(indices)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+utteranceColumns+` FROM utterances WHERE idx IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, err
		}
		out[u.Index] = u
	}
	return out, rows.Err()
}

// ListUtterances returns utterances in position order with offset and limit.
func (s *SQLiteStorage) ListUtterances(ctx context.Context, offset, limit int) ([]*models.Utterance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+utteranceColumns+` FROM utterances ORDER BY idx LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Utterance
	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountEpisodes returns the total number of episodes.
func (s *SQLiteStorage) CountEpisodes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&count)
	return count, err
}

// CountUtterances returns the total number of utterances.
func (s *SQLiteStorage) CountUtterances(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM utterances`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
