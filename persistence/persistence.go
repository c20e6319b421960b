package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	auth "github.com/coursehub/auth"
	"github.com/coursehub/auth/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Options selects the store backing the users table
type Options struct {
	Driver string
	DSN    string
	Logger auth.Logger
	// Debug logs every query
	Debug bool
}

// Open connects to the configured database and checks it is reachable
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	var db *bun.DB

	switch opts.Driver {
	case config.DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers, a single connection avoids SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case config.DriverPostgres:
		sqldb, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	if opts.Debug && opts.Logger != nil {
		db.AddQueryHook(&QueryLogger{Logger: opts.Logger})
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}

	return db, nil
}

// OpenAndMigrate opens the database and applies pending migrations
func OpenAndMigrate(ctx context.Context, opts Options) (*bun.DB, error) {
	db, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	group, err := auth.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if opts.Logger != nil {
		if group.IsZero() {
			opts.Logger.Info("database schema up to date", "driver", opts.Driver)
		} else {
			opts.Logger.Info("database migrated", "driver", opts.Driver, "group", group.String())
		}
	}

	return db, nil
}

// QueryLogger is a bun query hook writing each statement at debug level
type QueryLogger struct {
	Logger auth.Logger
}

var _ bun.QueryHook = (*QueryLogger)(nil)

func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	args := []any{
		"query", event.Query,
		"duration", time.Since(event.StartTime),
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		args = append(args, "error", event.Err)
	}
	h.Logger.Debug("sql", args...)
}
