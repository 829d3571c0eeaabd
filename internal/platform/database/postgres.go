package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	DSN            string
	MaxConnections int
	MaxRetries     int
	RetryDelay     time.Duration
}

// NewPostgresDB opens the pool and waits for the server to answer, retrying
// while it starts up.
func NewPostgresDB(ctx context.Context, cfg Config, log logrus.FieldLogger) (*sql.DB, error) {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 25
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(5 * time.Minute)

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		log.WithField("attempt", attempt).Info("connecting to database")

		if err = db.PingContext(ctx); err == nil {
			log.Info("database connected")
			return db, nil
		}

		log.WithError(err).Warnf("database not ready, retrying in %s", cfg.RetryDelay)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	db.Close()
	return nil, fmt.Errorf("connect database after %d attempts: %w", cfg.MaxRetries, err)
}
