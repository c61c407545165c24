// Package sqlstore implements the repositories on database/sql, for
// PostgreSQL (lib/pq) and SQLite (mattn/go-sqlite3), with the schema managed
// by embedded goose migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for opening a SQL database.
type Config struct {
	Driver string
	DSN    string
}

// DB is a database handle that remembers its driver.
type DB struct {
	*sql.DB
	driver string
}

// Open opens and pings the database. SQLite is limited to one connection so
// concurrent writers queue instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is required")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db, driver: cfg.Driver}, nil
}

// Driver returns the database driver name.
func (d *DB) Driver() string {
	return d.driver
}

// Migrate applies all pending migrations for the driver's dialect. Goose
// output goes to log.
func (d *DB) Migrate(ctx context.Context, log zerolog.Logger) error {
	goose.SetLogger(gooseLogger{log: log.With().Str("component", "goose").Logger()})
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(d.driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, d.DB, "migrations/"+d.driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger adapts zerolog to goose.Logger.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Name and Ping make DB a readiness dependency.
func (d *DB) Name() string { return d.driver }

func (d *DB) Ping(ctx context.Context) error { return d.PingContext(ctx) }

// parseID converts an opaque id to the integer primary key.
func parseID(id string, invalid error) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, invalid
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// isUniqueViolation reports whether err is a unique constraint failure in
// either dialect.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var errInvalidUserID = fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
