// Package indexdb keeps a queryable log of serviced generation requests.
// Writes go through a single writer goroutine with batched transactions;
// when the writer falls behind, entries are dropped rather than stalling
// the request path.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/transport"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan transport.GenerationEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Requests arrive at human rates; this absorbs any realistic burst.
		ch: make(chan transport.GenerationEntry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS generations (
			request_id TEXT,
			received_at TEXT NOT NULL,
			kind TEXT NOT NULL,
			scene_digest TEXT,
			seed INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			shapes_ok INTEGER NOT NULL,
			shapes_skipped INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			remote TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_generations_received ON generations(received_at);`,
		`CREATE INDEX IF NOT EXISTS idx_generations_kind ON generations(kind, received_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteGeneration queues one request record. Never blocks: if the writer
// has fallen behind the entry is dropped and counted; the response the
// client already holds remains the source of truth.
func (s *SQLiteIndex) WriteGeneration(entry transport.GenerationEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropped.Add(1)
	}
	return nil
}

type QueueStats struct {
	Depth     int
	DropTotal int64
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{Depth: len(s.ch), DropTotal: s.dropped.Load()}
}

// UpsertPalette records the active material table in meta, so an index file
// can always be matched to the palette its generations used.
func (s *SQLiteIndex) UpsertPalette(pal *palette.Palette) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	names, _ := json.Marshal(pal.Names)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, kv := range [][2]string{
		{"schema_version", "1"},
		{"palette_digest", pal.Digest},
		{"palette_names", string(names)},
		{"palette_updated_at", now},
	} {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Meta reads one meta value; missing keys return "".
func (s *SQLiteIndex) Meta(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// Recent returns the newest n request records, newest first.
func (s *SQLiteIndex) Recent(n int) ([]transport.GenerationEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.Query(`SELECT request_id, received_at, kind, scene_digest, seed, chunks,
			shapes_ok, shapes_skipped, duration_ms, remote
		FROM generations ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transport.GenerationEntry
	for rows.Next() {
		var e transport.GenerationEntry
		var received string
		if err := rows.Scan(&e.RequestID, &received, &e.Kind, &e.SceneDigest, &e.Seed, &e.Chunks,
			&e.ShapesOK, &e.ShapesSkipped, &e.DurationMS, &e.Remote); err != nil {
			return nil, err
		}
		e.ReceivedAt, _ = time.Parse(time.RFC3339Nano, received)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insert, _ := s.db.Prepare(`INSERT INTO generations(request_id, received_at, kind, scene_digest,
		seed, chunks, shapes_ok, shapes_skipped, duration_ms, remote)
		VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	var (
		tx      *sql.Tx
		opCount int
	)
	const (
		commitEvery   = 256
		commitMaxWait = 2 * time.Second
	)

	begin := func() bool {
		if tx != nil {
			return true
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return false
		}
		tx = txx
		opCount = 0
		return true
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	// The ticker bounds how long a quiet spell can keep rows uncommitted.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			if insert == nil || !begin() {
				continue
			}
			if _, err := tx.Stmt(insert).Exec(
				e.RequestID,
				e.ReceivedAt.UTC().Format(time.RFC3339Nano),
				e.Kind,
				e.SceneDigest,
				e.Seed,
				e.Chunks,
				e.ShapesOK,
				e.ShapesSkipped,
				e.DurationMS,
				e.Remote,
			); err != nil {
				rollback()
				continue
			}
			opCount++
			if opCount >= commitEvery {
				commit()
			}
		case <-ticker.C:
			commit()
		}
	}
}
