package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/config"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
)

// Executor is the read-only query capability the schema service consumes.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Connection struct {
	DB     *sql.DB
	Config *config.Config
}

func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	db, err := sql.Open(cfg.DriverName(), cfg.GetConnectionString())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeConnection, "failed to open database connection")
	}

	conn := &Connection{DB: db, Config: cfg}
	if err := conn.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}

// Wrap adopts an already opened handle, e.g. a sqlmock database in tests.
func Wrap(db *sql.DB, cfg *config.Config) *Connection {
	return &Connection{DB: db, Config: cfg}
}

// Ping verifies the database is reachable within the configured query timeout.
func (c *Connection) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	if err := c.DB.PingContext(ctx); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "unable to reach %s database %q on %s", c.Config.Database.Type, c.GetDatabaseName(), c.Config.Database.Host).
			WithSuggestion("Check host, port and credentials in the config file").
			WithSuggestion("Run 'tabledef check --config <file>' after fixing the settings")
	}
	return nil
}

func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

func (c *Connection) Close() error {
	return c.DB.Close()
}

func (c *Connection) GetDatabaseName() string {
	return c.Config.Database.Database
}

// ServerVersion returns the engine's version banner for the connection check.
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	query := "SELECT version()"
	if c.Config.Database.Type == config.TypeSQLServer {
		query = "SELECT @@VERSION"
	}

	var version string
	if err := c.DB.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}

func (c *Connection) timeout() time.Duration {
	return c.Config.QueryTimeoutDuration()
}

// IsConnectionError reports whether a driver error means the connection itself is unusable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn)
}
