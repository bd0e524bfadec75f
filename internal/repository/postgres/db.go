package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// attachedSchemas are the foreign schemas emulated with ATTACH on SQLite
var attachedSchemas = []string{"auth", "archive", "chat", "public"}

// DB is a connection pool together with the SQL dialect it speaks
type DB struct {
	*sql.DB
	driver  string
	dialect query.Dialect
	timeout time.Duration
}

// Dialect returns the placeholder dialect of the pool
func (db *DB) Dialect() query.Dialect {
	return db.dialect
}

// Driver returns the database/sql driver name
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders for the pool's dialect
func (db *DB) Rebind(stmt string) string {
	return db.dialect.Rebind(stmt)
}

// WithTimeout bounds a query by the configured query timeout
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.timeout)
}

// New creates a new database connection
func New(cfg config.DatabaseConfig) (*DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}

	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)

		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		setPool(db, cfg)

	case "pgx":
		db, err = sql.Open("pgx", PostgresURL(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open pgx database: %w", err)
		}
		setPool(db, cfg)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return Wrap(db, cfg.Driver, cfg.QueryTimeout), nil
}

// Wrap adopts an already opened pool
func Wrap(db *sql.DB, driver string, timeout time.Duration) *DB {
	return &DB{
		DB:      db,
		driver:  driver,
		dialect: query.DialectFor(driver),
		timeout: timeout,
	}
}

// PostgresURL builds a connection URL from the config parts
func PostgresURL(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

func setPool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// openSQLite opens path and attaches one database per foreign schema so
// schema-qualified statements run unchanged. In-memory databases get
// in-memory attachments; file databases get sibling files.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Attachments live on the connection, so keep exactly one forever
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	memory := path == ":memory:" || path == ""
	if !memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	for _, schema := range attachedSchemas {
		target := ":memory:"
		if !memory {
			target = strings.TrimSuffix(path, ".db") + "_" + schema + ".db"
		}
		if _, err := db.Exec("ATTACH DATABASE ? AS "+schema, target); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to attach %s schema: %w", schema, err)
		}
	}

	return db, nil
}
