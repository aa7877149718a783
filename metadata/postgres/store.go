package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/metadata/schema"
	"github.com/ebogdum/jfsio/metrics"
)

// PostgresStore implements the metadata.Store interface using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore connects, applies pending migrations and returns the store.
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := schema.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("PostgreSQL metadata schema is up to date")

	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

func count(op string) { metrics.MetadataQueriesTotal.WithLabelValues("postgres", op).Inc() }

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
