package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"ascend-backend/internal/shared/telemetry"
)

// ErrNoDatabaseURL is returned when persistence is not configured.
var ErrNoDatabaseURL = errors.New("database url is empty")

// Role is the kind of process holding the pool.
type Role int

const (
	// RoleServer is the long-running HTTP API.
	RoleServer Role = iota
	// RoleLambda is a function instance. Warm invocations reuse one handle.
	RoleLambda
	// RoleCommand is a one-shot CLI run such as migrate or remind.
	RoleCommand
)

func (r Role) String() string {
	switch r {
	case RoleLambda:
		return "lambda"
	case RoleCommand:
		return "command"
	default:
		return "server"
	}
}

// CurrentRole returns RoleLambda inside the Lambda runtime and fallback
// anywhere else.
func CurrentRole(fallback Role) Role {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return RoleLambda
	}
	return fallback
}

// Pool sizes a connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

// PoolFor returns the sizing for role with any DB_* overrides applied.
func PoolFor(role Role) Pool {
	var p Pool
	switch role {
	case RoleLambda:
		// Every warm instance holds its own connections to the shared database.
		p = Pool{MaxOpen: 2, MaxIdle: 1, MaxLifetime: 15 * time.Minute, MaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second}
	case RoleCommand:
		p = Pool{MaxOpen: 1, MaxIdle: 1, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	default:
		p = Pool{MaxOpen: 10, MaxIdle: 5, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	}
	for _, o := range poolOverrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		if err := o.apply(&p, raw); err != nil {
			telemetry.Warn("db.env_invalid", map[string]any{"key": o.key, "error": err})
		}
	}
	return p
}

var poolOverrides = []struct {
	key   string
	apply func(p *Pool, raw string) error
}{
	{"DB_MAX_OPEN_CONNS", func(p *Pool, raw string) error { return setInt(&p.MaxOpen, raw) }},
	{"DB_MAX_IDLE_CONNS", func(p *Pool, raw string) error { return setInt(&p.MaxIdle, raw) }},
	{"DB_CONN_MAX_LIFETIME", func(p *Pool, raw string) error { return setDuration(&p.MaxLifetime, raw) }},
	{"DB_CONN_MAX_IDLE_TIME", func(p *Pool, raw string) error { return setDuration(&p.MaxIdleTime, raw) }},
	{"DB_PING_TIMEOUT", func(p *Pool, raw string) error { return setDuration(&p.PingTimeout, raw) }},
}

func setInt(dst *int, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, raw string) error {
	v, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

var openDB = sql.Open

// Connect opens a pgx-backed handle sized by pool and pings it.
func Connect(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	sqlDB, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.applyTo(sqlDB)

	timeout := pool.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := sqlDB.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return sqlDB, nil
}

func (p Pool) applyTo(sqlDB *sql.DB) {
	maxOpen, maxIdle, lifetime := p.MaxOpen, p.MaxIdle, p.MaxLifetime
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	if p.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

var warm struct {
	sync.Mutex
	db *sql.DB
}

// Open connects for role. A Lambda instance keeps the first successful handle
// for every later invocation; a failed cold start is retried on the next call.
func Open(ctx context.Context, databaseURL string, role Role) (*sql.DB, error) {
	if role != RoleLambda {
		return Connect(ctx, databaseURL, PoolFor(role))
	}

	warm.Lock()
	defer warm.Unlock()
	if warm.db != nil {
		return warm.db, nil
	}
	sqlDB, err := Connect(ctx, databaseURL, PoolFor(role))
	if err != nil {
		telemetry.Error("db.cold_start_failed", map[string]any{"error": err})
		return nil, err
	}
	telemetry.Info("db.cold_start", nil)
	warm.db = sqlDB
	return sqlDB, nil
}
