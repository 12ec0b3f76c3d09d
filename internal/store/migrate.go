package store

import (
	"embed"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

type migrateLogger struct {
	log interface{ Debugf(string, ...any) }
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debugf("migrate: "+format, v...)
}

func (l migrateLogger) Verbose() bool {
	return true
}

// Migrate applies all pending migrations and returns the resulting version.
func Migrate(dsn string, log interface{ Debugf(string, ...any) }) (uint, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return 0, errors.Wrap(err, "migration: open source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5DSN(dsn))
	if err != nil {
		return 0, errors.Wrap(err, "migration: init")
	}
	defer func() {
		_, _ = m.Close()
	}()

	if log != nil {
		m.Log = migrateLogger{log: log}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, errors.Wrap(err, "migration: up")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, errors.Wrap(err, "migration: version")
	}
	if dirty {
		return version, errors.Newf("migration: database is dirty at version %d", version)
	}

	return version, nil
}

// golang-migrate's pgx v5 driver registers the pgx5 scheme.
func pgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}

	return dsn
}
