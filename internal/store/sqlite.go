package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"outreach-engine/internal/domain"
)

// SQLite is the durable backend. Campaigns are stored as one JSON document
// per row; the indexed columns exist only to serve the history listing
// without unmarshaling every record.
type SQLite struct {
	pool *sql.DB

	// Per-id locks give Update its read-modify-write atomicity. The pool is
	// capped at one connection anyway (sqlite single writer), but the lock
	// scopes the serialization to the id instead of the whole database read
	// path.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	if err := migrate(pool); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &SQLite{pool: pool, locks: make(map[string]*sync.Mutex)}, nil
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS campaigns (
  job_id TEXT PRIMARY KEY,
  company TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL,
  people_count INTEGER NOT NULL DEFAULT 0,
  drafts_count INTEGER NOT NULL DEFAULT 0,
  doc TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_campaigns_created_at
ON campaigns(created_at DESC);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) lockFor(jobID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.locks[jobID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[jobID] = l
	return l
}

func (s *SQLite) Create(ctx context.Context, c *domain.Campaign) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal campaign: %w", err)
	}
	_, err = s.pool.ExecContext(ctx, `
INSERT INTO campaigns(job_id, company, role, status, people_count, drafts_count, doc, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?,?);`,
		c.JobID, c.Company, c.Role, string(c.Status),
		len(c.People), len(c.EmailDrafts), string(doc),
		c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, jobID string) (*domain.Campaign, error) {
	var doc string
	err := s.pool.QueryRowContext(ctx,
		`SELECT doc FROM campaigns WHERE job_id = ?;`, jobID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	var c domain.Campaign
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", jobID, err)
	}
	return &c, nil
}

func (s *SQLite) Update(ctx context.Context, jobID string, mutate func(*domain.Campaign) error) (*domain.Campaign, error) {
	l := s.lockFor(jobID)
	l.Lock()
	defer l.Unlock()

	c, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal campaign: %w", err)
	}
	_, err = s.pool.ExecContext(ctx, `
UPDATE campaigns
SET company = ?, role = ?, status = ?, people_count = ?, drafts_count = ?, doc = ?, updated_at = ?
WHERE job_id = ?;`,
		c.Company, c.Role, string(c.Status),
		len(c.People), len(c.EmailDrafts), string(doc),
		c.UpdatedAt.Format(time.RFC3339Nano), jobID)
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return c.Clone(), nil
}

func (s *SQLite) List(ctx context.Context) ([]domain.Summary, error) {
	rows, err := s.pool.QueryContext(ctx, `
SELECT job_id, company, role, status, people_count, drafts_count, created_at
FROM campaigns
ORDER BY created_at DESC, job_id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var sm domain.Summary
		var status, created string
		if err := rows.Scan(&sm.JobID, &sm.Company, &sm.Role, &status, &sm.PeopleCount, &sm.DraftsCount, &created); err != nil {
			return nil, err
		}
		sm.Status = domain.Status(status)
		sm.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLite) CleanupOld(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339Nano)

	// Collect the doomed ids first so their Update locks can be released
	// too; otherwise the lock map grows for the lifetime of the process.
	rows, err := s.pool.QueryContext(ctx, `
SELECT job_id FROM campaigns
WHERE status IN ('completed','failed') AND updated_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old campaigns: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var n int64
	for _, id := range ids {
		res, err := s.pool.ExecContext(ctx, `DELETE FROM campaigns WHERE job_id = ?;`, id)
		if err != nil {
			return n, fmt.Errorf("cleanup old campaigns: %w", err)
		}
		deleted, _ := res.RowsAffected()
		n += deleted
	}

	s.locksMu.Lock()
	for _, id := range ids {
		delete(s.locks, id)
	}
	s.locksMu.Unlock()

	return n, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
