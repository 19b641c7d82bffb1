package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
)

// Service exposes connection health for the readiness endpoint.
type Service interface {
	Health() map[string]string
	Close() error
}

type service struct {
	db *sql.DB
}

func NewPostgres() (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("PAYFLOW_DB_USERNAME"),
		os.Getenv("PAYFLOW_DB_PASSWORD"),
		os.Getenv("PAYFLOW_DB_HOST"),
		os.Getenv("PAYFLOW_DB_PORT"),
		os.Getenv("PAYFLOW_DB_DATABASE"),
	)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func New(db *sql.DB) Service {
	return &service{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	external_reference TEXT UNIQUE,
	cpf VARCHAR(11) NOT NULL,
	description TEXT NOT NULL,
	amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
	method TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the schema. Idempotent; runs at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Health pings the database and reports pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	return stats
}

func (s *service) Close() error {
	return s.db.Close()
}
