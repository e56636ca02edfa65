package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type Options struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
	ConnMaxIdle  time.Duration
	PingTimeout  time.Duration
}

// Open dials MySQL with pooled connections and verifies reachability.
func Open(opt Options) (*sql.DB, error) {
	if opt.MaxOpenConns <= 0 {
		opt.MaxOpenConns = 25
	}
	if opt.MaxIdleConns <= 0 {
		opt.MaxIdleConns = 10
	}
	if opt.ConnMaxLife == 0 {
		opt.ConnMaxLife = 30 * time.Minute
	}
	if opt.ConnMaxIdle == 0 {
		opt.ConnMaxIdle = 5 * time.Minute
	}
	if opt.PingTimeout == 0 {
		opt.PingTimeout = 2 * time.Second
	}

	d, err := sql.Open("mysql", opt.DSN)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(opt.MaxOpenConns)
	d.SetMaxIdleConns(opt.MaxIdleConns)
	d.SetConnMaxLifetime(opt.ConnMaxLife)
	d.SetConnMaxIdleTime(opt.ConnMaxIdle)

	ctx, cancel := context.WithTimeout(context.Background(), opt.PingTimeout)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
