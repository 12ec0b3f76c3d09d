// Package store persists chapter records in PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brogergvhs/mangasync/internal/chapters"
)

const (
	maxConns        = 8
	minConns        = 1
	maxConnIdleTime = 10 * time.Minute
	connectTimeout  = 5 * time.Second
	pingTimeout     = 2 * time.Second
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("chapter not found")

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: invalid DSN")
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: create pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}

	return pool, nil
}

type ChapterStore struct {
	pool *pgxpool.Pool
}

func NewChapterStore(pool *pgxpool.Pool) *ChapterStore {
	return &ChapterStore{pool: pool}
}

const upsertSQL = `
INSERT INTO manga_chapters (key, manga_title, chapter_number, source_url, image_urls, page_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (key) DO UPDATE SET
    manga_title    = EXCLUDED.manga_title,
    chapter_number = EXCLUDED.chapter_number,
    source_url     = EXCLUDED.source_url,
    image_urls     = EXCLUDED.image_urls,
    page_count     = EXCLUDED.page_count,
    created_at     = now()
RETURNING created_at`

// Save writes rec at rec.Key, replacing any previous record. The creation
// timestamp is assigned by the database and returned.
func (s *ChapterStore) Save(ctx context.Context, rec chapters.Record) (time.Time, error) {
	if err := checkRecord(rec); err != nil {
		return time.Time{}, err
	}

	var createdAt time.Time
	err := s.pool.QueryRow(ctx, upsertSQL,
		rec.Key, rec.Title, rec.ChapterID, rec.SourceURL, rec.ImageURLs, rec.PageCount,
	).Scan(&createdAt)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "upsert chapter %s", rec.Key)
	}

	return createdAt, nil
}

const getSQL = `
SELECT key, manga_title, chapter_number, source_url, image_urls, page_count, created_at
FROM manga_chapters WHERE key = $1`

func (s *ChapterStore) Get(ctx context.Context, key string) (chapters.Record, error) {
	var rec chapters.Record
	err := s.pool.QueryRow(ctx, getSQL, key).Scan(
		&rec.Key, &rec.Title, &rec.ChapterID, &rec.SourceURL, &rec.ImageURLs, &rec.PageCount, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return chapters.Record{}, errors.Wrapf(ErrNotFound, "key %s", key)
	}
	if err != nil {
		return chapters.Record{}, errors.Wrapf(err, "get chapter %s", key)
	}

	return rec, nil
}

func checkRecord(rec chapters.Record) error {
	switch {
	case rec.Key == "":
		return errors.New("record key is required")
	case rec.PageCount < 1:
		return errors.Newf("record %s has no pages", rec.Key)
	case len(rec.ImageURLs) != rec.PageCount:
		return errors.Newf("record %s: page count %d does not match %d urls", rec.Key, rec.PageCount, len(rec.ImageURLs))
	}

	return nil
}
