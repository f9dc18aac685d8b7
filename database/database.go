package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vineyard-api/config"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/platform/logger"
)

const applicationName = "vineyard_backend"

// Database owns the connection pool. Repositories borrow it through DB and
// never close it themselves.
type Database struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to DB_URL. Postgres URLs and key=value DSNs go through the
// pgx driver; "sqlite:" and "file:" URLs open an embedded database, which is
// what local development and the test suite use.
func Open(dsn string, cfg config.DBConfig, log *logger.Logger) (*Database, error) {
	dbLog := log.With("service", "Database")

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"))
	case strings.HasPrefix(dsn, "file:"):
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(WithRuntimeParams(dsn, cfg))
	}

	dbLog.Info("Connecting to database...", "dialect", dialector.Name())
	queryLog := gormlogger.New(dbLog, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         queryLog,
	})
	if err != nil {
		dbLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Database{db: gdb, log: dbLog}, nil
}

// Migrate creates or updates every table the service owns.
func (d *Database) Migrate() error {
	d.log.Info("Auto migrating tables...")
	err := d.db.AutoMigrate(
		&users.User{},
		&vines.Vine{},
		&vines.VineLocation{},
		&issues.Issue{},
		&maintenance.Type{},
		&maintenance.Activity{},
	)
	if err != nil {
		d.log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("auto migrate: %w", err)
	}
	d.log.Info("Migration complete")
	return nil
}

func (d *Database) DB() *gorm.DB {
	return d.db
}

// Transact runs fn in a single transaction bound to ctx.
func (d *Database) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fn)
}

// Ping is used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close drains the pool. It gives up waiting when ctx expires; the pool keeps
// closing in the background.
func (d *Database) Close(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- sqlDB.Close() }()
	select {
	case err := <-done:
		if err != nil {
			d.log.Error("Closing connection pool failed", "error", err)
			return err
		}
		d.log.Info("Connection pool closed")
		return nil
	case <-ctx.Done():
		d.log.Warn("Connection pool close timed out", "error", ctx.Err())
		return errors.Join(errors.New("database close timed out"), ctx.Err())
	}
}

// WithRuntimeParams adds the per-session limits to a Postgres DSN unless the
// caller already set them. Both URL and key=value forms are accepted.
func WithRuntimeParams(dsn string, cfg config.DBConfig) string {
	params := [][2]string{
		{"application_name", applicationName},
	}
	if cfg.StatementTimeout > 0 {
		params = append(params, [2]string{"statement_timeout", millis(cfg.StatementTimeout)})
	}
	if cfg.IdleTxTimeout > 0 {
		params = append(params, [2]string{"idle_in_transaction_session_timeout", millis(cfg.IdleTxTimeout)})
	}

	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		for _, p := range params {
			if q.Get(p[0]) == "" {
				q.Set(p[0], p[1])
			}
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	out := strings.TrimSpace(dsn)
	for _, p := range params {
		if strings.Contains(out, p[0]+"=") {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p[0] + "=" + p[1]
	}
	return out
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
