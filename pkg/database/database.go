package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"belajar-todo/configs"
)

// ConnectDB membuka pool koneksi Postgres dan memastikan database bisa dihubungi.
func ConnectDB(ctx context.Context, cfg configs.Config) (*sqlx.DB, error) {
	return open(ctx, cfg.DSN())
}

// ConnectTestDB memakai DB_NAME_TEST.
func ConnectTestDB(ctx context.Context, cfg configs.Config) (*sqlx.DB, error) {
	return open(ctx, cfg.TestDSN())
}

func open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
