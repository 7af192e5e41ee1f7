package releasecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"

	"github.com/giantswarm/sdkmatrix/internal/fileutil"
)

// FileName is the database file name inside the cache directory.
const FileName = "releases.db"

const schema = `CREATE TABLE IF NOT EXISTS releases (
	url        TEXT PRIMARY KEY,
	etag       TEXT NOT NULL,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Entry is one cached response.
type Entry struct {
	URL       string
	ETag      string
	Body      []byte
	FetchedAt time.Time
}

// Cache is a handle on the release cache database. It is safe for concurrent
// use; database/sql serializes access over the single connection.
type Cache struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the cache database at path.
// If logger is nil, slog.Default() is used.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("release cache: close sqlite", "error", closeErr)
		}
		return nil, fmt.Errorf("create release cache schema: %w", err)
	}
	return &Cache{db: db, log: logger}, nil
}

// Get returns the entry stored for url. The boolean is false when nothing is
// cached for it.
func (c *Cache) Get(ctx context.Context, url string) (Entry, bool, error) {
	var (
		e       Entry
		fetched int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT url, etag, body, fetched_at FROM releases WHERE url = ?`, url,
	).Scan(&e.URL, &e.ETag, &e.Body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cached release %s: %w", url, err)
	}
	e.FetchedAt = time.Unix(fetched, 0).UTC()
	return e, true, nil
}

// Put stores e, replacing any entry for the same URL. A zero FetchedAt is
// recorded as the current time.
func (c *Cache) Put(ctx context.Context, e Entry) error {
	if e.URL == "" {
		return errors.New("release cache: url must not be empty")
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	if e.Body == nil {
		e.Body = []byte{}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO releases (url, etag, body, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET etag = excluded.etag, body = excluded.body, fetched_at = excluded.fetched_at`,
		e.URL, e.ETag, e.Body, e.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cached release %s: %w", e.URL, err)
	}
	c.log.Debug("release cache: stored", "url", e.URL, "etag", e.ETag, "bytes", len(e.Body))
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM releases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached releases: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
