package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
	_ "modernc.org/sqlite"
)

const (
	metaLastUpdated = "last_updated"
	metaStats       = "stats"
)

// SQLiteStore keeps the corpus in a SQLite database. Each Save replaces the
// stored rows inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= 1 {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  position INTEGER PRIMARY KEY,
  id TEXT NOT NULL,
  source TEXT NOT NULL,
  posted_at TEXT,
  data TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source);`); err != nil {
		return fmt.Errorf("create jobs index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (Corpus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM jobs ORDER BY position;`)
	if err != nil {
		return Corpus{}, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	corpus := emptyCorpus()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return Corpus{}, fmt.Errorf("scan job: %w", err)
		}
		var job models.Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return Corpus{}, fmt.Errorf("decode job: %w", err)
		}
		corpus.Jobs = append(corpus.Jobs, job)
	}
	if err := rows.Err(); err != nil {
		return Corpus{}, fmt.Errorf("query jobs: %w", err)
	}

	lastUpdated, err := s.meta(ctx, metaLastUpdated)
	if err != nil {
		return Corpus{}, err
	}
	if lastUpdated != "" {
		parsed, err := time.Parse(time.RFC3339Nano, lastUpdated)
		if err != nil {
			return Corpus{}, fmt.Errorf("decode last updated: %w", err)
		}
		corpus.LastUpdated = parsed
	}

	stats, err := s.meta(ctx, metaStats)
	if err != nil {
		return Corpus{}, err
	}
	if stats != "" {
		if err := json.Unmarshal([]byte(stats), &corpus.Stats); err != nil {
			return Corpus{}, fmt.Errorf("decode stats: %w", err)
		}
	}
	return corpus, nil
}

func (s *SQLiteStore) meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Save(ctx context.Context, corpus Corpus) error {
	stats, err := json.Marshal(corpus.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jobs (position, id, source, posted_at, data) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, job := range corpus.Jobs {
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("encode job %s: %w", job.ID, err)
		}
		var postedAt any
		if job.HasPostedAt() {
			postedAt = job.PostedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, i, job.ID, job.Source, postedAt, string(data)); err != nil {
			return fmt.Errorf("insert job %s: %w", job.ID, err)
		}
	}

	upsert := `INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`
	if _, err := tx.ExecContext(ctx, upsert, metaLastUpdated, corpus.LastUpdated.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write last updated: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, metaStats, string(stats)); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
