package cmd

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/brogergvhs/mangasync/internal/config"
	"github.com/brogergvhs/mangasync/internal/downloader"
	"github.com/brogergvhs/mangasync/internal/ingest"
	"github.com/brogergvhs/mangasync/internal/lock"
	"github.com/brogergvhs/mangasync/internal/providers/generic"
	"github.com/brogergvhs/mangasync/internal/storage"
	"github.com/brogergvhs/mangasync/internal/store"
	"github.com/brogergvhs/mangasync/internal/ui"
	"github.com/brogergvhs/mangasync/internal/util"
)

// loadConfig merges profile, environment and opts, then checks that the
// settings named by need are present.
func loadConfig(opts config.Options, need int) (*config.Config, *ui.Logger, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = opts.Debug || flagDebug

	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, nil, err
	}

	log := ui.NewLogger(cfg.Debug, cfg.JSONLogs)
	log.Debugf("config: %s", used)

	if err := cfg.Validate(need); err != nil {
		return nil, nil, errors.WithHint(err,
			"set the values in the active profile (mangasync config edit) or as "+config.EnvPrefix+"* environment variables")
	}

	return cfg, log, nil
}

func newHTTPClient(cfg *config.Config, log *ui.Logger) (*http.Client, error) {
	return util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.HTTPTimeout.Duration,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      log,
	})
}

// services holds the clients built once per process.
type services struct {
	orch    *ingest.Orchestrator
	closers []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg *config.Config, log *ui.Logger) (*services, error) {
	svc := &services{}

	client, err := newHTTPClient(cfg, log)
	if err != nil {
		return nil, err
	}

	objects, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.EnsureBucket {
		if err := objects.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.AutoMigrate {
		version, err := store.Migrate(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.Debugf("database schema at version %d", version)
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, pool.Close)

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, func() { _ = rdb.Close() })
		locker = lock.NewRedis(rdb, cfg.LockTTL.Duration, log)
		log.Debugf("job locks held in redis")
	}

	svc.orch = ingest.New(ingest.Deps{
		Extractor: generic.NewScraper(client, cfg.Selector, log),
		Uploader:  downloader.New(client, objects, log),
		Store:     store.NewChapterStore(pool),
		Locker:    locker,
		Log:       log,
	}, ingest.Options{
		PageDelay: cfg.PageDelay.Duration,
		MinPages:  cfg.MinPages,
	})

	return svc, nil
}
