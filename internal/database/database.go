// Package database opens the Postgres catalog shared by both services.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"docstore/internal/config"
	"docstore/internal/database/migration"
)

const pingTimeout = 5 * time.Second

var sqlOpen = sql.Open

// Open connects to the catalog database and migrates schema when
// AutoMigrate is set. It returns a nil *sql.DB and no error when no host is
// configured; callers then fall back to the in-memory catalog.
func Open(ctx context.Context, c config.DatabaseConfig, schema migration.Schema, log *zap.Logger) (*sql.DB, error) {
	if c.Host == "" {
		log.Warn("database_not_configured", zap.String("schema", schema.Name), zap.String("catalog", "memory"))
		return nil, nil
	}

	db, err := connect(ctx, c)
	if err != nil {
		return nil, err
	}
	if !c.AutoMigrate {
		return db, nil
	}
	if err := migration.EnsureMigrated(ctx, db, schema, log, c.Host); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN builds a postgres:// URL. host, port, user and name are required.
func DSN(c config.DatabaseConfig) (string, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"host", c.Host}, {"port", c.Port}, {"user", c.User}, {"name", c.Name},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("database config: missing %s", strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + c.Port,
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// connect opens a traced pgx pool, applies pool limits and pings it.
func connect(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
