// Package store implements types.Store over database/sql through sqlx.
// SQLite (modernc.org/sqlite) and MySQL (go-sql-driver/mysql) are supported.
// Every statement waits on an optional rate limiter, is logged at debug
// level, and is logged as a warning when it runs longer than the configured
// slow threshold.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/cabinet/internal/logging"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

// DBFile is the SQLite database file created under Config.DataDir.
const DBFile = "cabinet.db"

// Store is a connection pool plus the primitives the mapping layer needs.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	db      *sqlx.DB
	backend string
	limiter *rate.Limiter
	slow    time.Duration
}

var _ types.Store = (*Store)(nil)

// Open validates cfg, opens the backend's connection pool and checks that
// the database is reachable.
func Open(ctx context.Context, cfg types.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(cfg.Backend, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 && cfg.Backend == types.BackendSQLite {
		// One writer at a time; also keeps :memory: databases on one connection.
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}

	s := &Store{
		db:      db,
		backend: cfg.Backend,
		slow:    cfg.GetSlowThreshold(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	logging.Info("store opened", "backend", cfg.Backend, "max_open_conns", maxOpen)
	return s, nil
}

// dataSource returns the driver DSN for cfg.
func dataSource(cfg types.Config) (string, error) {
	switch cfg.Backend {
	case types.BackendMySQL:
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		return mc.FormatDSN(), nil
	default:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		dir := cfg.DataDir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
		return filepath.Join(dir, DBFile) + "?_pragma=busy_timeout(5000)", nil
	}
}

// Backend returns the backend name the store was opened with.
func (s *Store) Backend() string { return s.backend }

// SelectOne runs query and returns its first row. Later rows are not read.
func (s *Store) SelectOne(ctx context.Context, query string, args ...any) (types.Row, error) {
	rows, err := s.query(ctx, query, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// Select runs query and returns every row.
func (s *Store) Select(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	return s.query(ctx, query, args, 0)
}

// SelectInt runs query and returns the single column of its first row as an
// integer.
func (s *Store) SelectInt(ctx context.Context, query string, args ...any) (int64, error) {
	row, err := s.SelectOne(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if len(row) != 1 {
		return 0, fmt.Errorf("%w: got %d", types.ErrMultiColumns, len(row))
	}
	for _, v := range row {
		return asInt64(v)
	}
	return 0, nil
}

// Insert writes row into table. Columns are sorted by name.
func (s *Store) Insert(ctx context.Context, table string, row types.Row) error {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		args[i] = row[c]
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	query := fmt.Sprintf("insert into %s (%s) values (%s)", quote(table), strings.Join(quoted, ","), placeholders)

	_, err := s.exec(ctx, query, args, false)
	return err
}

// Update runs a data-modifying statement and returns the affected row count.
func (s *Store) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return s.exec(ctx, query, args, false)
}

// Exec runs stmt, typically generated DDL.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	_, err := s.exec(ctx, stmt, nil, true)
	return err
}

// HasTable reports whether table exists.
func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	query := "select count(*) from sqlite_master where type='table' and name=?"
	if s.backend == types.BackendMySQL {
		query = "select count(*) from information_schema.tables where table_schema=database() and table_name=?"
	}
	n, err := s.SelectInt(ctx, query, table)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the connection pool. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// acquire returns the pool once the rate limiter admits a statement.
func (s *Store) acquire(ctx context.Context) (*sqlx.DB, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, types.ErrStoreClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return s.db, nil
}

// query returns at most limit rows, or every row when limit is 0.
func (s *Store) query(ctx context.Context, query string, args []any, limit int) ([]types.Row, error) {
	db, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.observe(query, args, time.Now())

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Row{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, types.Row(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// exec runs a statement. With ddl, a driver that cannot report affected
// rows yields 0 instead of an error.
func (s *Store) exec(ctx context.Context, query string, args []any, ddl bool) (int64, error) {
	db, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer s.observe(query, args, time.Now())

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return affected(res, ddl)
}

func affected(res sql.Result, ddl bool) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		if ddl {
			return 0, nil
		}
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// observe logs a finished statement, as a warning when it was slow.
func (s *Store) observe(query string, args []any, start time.Time) {
	elapsed := time.Since(start)
	if elapsed > s.slow {
		logging.Warn("slow statement", "sql", query, "elapsed", elapsed)
		return
	}
	logging.Debug("sql", "sql", query, "args", args, "elapsed", elapsed)
}

// quote wraps an identifier in backticks, which both backends accept.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// asInt64 reads a scalar result. MySQL returns integers as []byte.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected %T in integer result", v)
	}
}
