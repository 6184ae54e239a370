package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/miradorstack/mirador-shiftreport/internal/cache"
	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

const (
	aggregatesCachePrefix   = "shiftreport:aggregates:"
	aggregatesGenerationKey = aggregatesCachePrefix + "generation"
)

// Documents are kept as TEXT rather than JSONB so component order survives a round trip.
var schemas = map[string][]string{
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS shift_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			shift INTEGER NOT NULL,
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shift_snapshots_date ON shift_snapshots(date, shift)`,
		`CREATE TABLE IF NOT EXISTS daily_aggregates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL
		)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS shift_snapshots (
			id BIGSERIAL PRIMARY KEY,
			date TEXT NOT NULL,
			shift INTEGER NOT NULL,
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shift_snapshots_date ON shift_snapshots(date, shift)`,
		`CREATE TABLE IF NOT EXISTS daily_aggregates (
			id BIGSERIAL PRIMARY KEY,
			date TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL
		)`,
	},
}

// SQLStore persists snapshots and aggregates as JSON documents in SQLite or PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	driver   string
	cache    cache.Provider
	cacheTTL time.Duration
	logger   *slog.Logger
	sequence atomic.Uint64
}

// OpenSQL opens a database for the given driver ("sqlite" or "postgres") and creates the schema.
func OpenSQL(ctx context.Context, driver, dsn string, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) (*SQLStore, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	store, err := NewSQLStore(db, driver, cacheProvider, cacheTTL, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an existing handle.
func NewSQLStore(db *sql.DB, driver string, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("sql store requires a database handle")
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, driver: driver, cache: cacheProvider, cacheTTL: cacheTTL, logger: logger}, nil
}

// Migrate creates tables and indexes when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// InsertShift stores a snapshot.
func (s *SQLStore) InsertShift(ctx context.Context, snapshot models.ShiftSnapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return utils.OperationFailed("insert shift", "encode snapshot", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO shift_snapshots (date, shift, document) VALUES (?, ?, ?)`),
		snapshot.Date, snapshot.Shift, string(doc))
	if err != nil {
		return utils.OperationFailed("insert shift", "store write failed", err)
	}
	return nil
}

// CountShifts counts snapshots for a date.
func (s *SQLStore) CountShifts(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM shift_snapshots WHERE date = ?`), date).Scan(&n)
	if err != nil {
		return 0, utils.OperationFailed("count shifts", "store query failed", err)
	}
	return n, nil
}

// FindShifts returns a date's snapshots in insertion order.
func (s *SQLStore) FindShifts(ctx context.Context, date string) ([]models.ShiftSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT document FROM shift_snapshots WHERE date = ? ORDER BY id`), date)
	if err != nil {
		return nil, utils.OperationFailed("find shifts", "store query failed", err)
	}
	out, err := scanDocuments[models.ShiftSnapshot](rows)
	if err != nil {
		return nil, utils.OperationFailed("find shifts", "decode snapshots", err)
	}
	return out, nil
}

// FindShift returns the first snapshot for date and shift.
func (s *SQLStore) FindShift(ctx context.Context, date string, shift int) (models.ShiftSnapshot, error) {
	_, snap, err := s.firstShift(ctx, "find shift", date, shift)
	return snap, err
}

// ListShifts returns every snapshot in insertion order.
func (s *SQLStore) ListShifts(ctx context.Context) ([]models.ShiftSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM shift_snapshots ORDER BY id`)
	if err != nil {
		return nil, utils.OperationFailed("list shifts", "store query failed", err)
	}
	out, err := scanDocuments[models.ShiftSnapshot](rows)
	if err != nil {
		return nil, utils.OperationFailed("list shifts", "decode snapshots", err)
	}
	return out, nil
}

// UpdateShift patches the first matching snapshot.
func (s *SQLStore) UpdateShift(ctx context.Context, date string, shift int, patch models.ShiftPatch) error {
	id, snap, err := s.firstShift(ctx, "update shift", date, shift)
	if err != nil {
		return err
	}
	doc, err := json.Marshal(patch.Apply(snap))
	if err != nil {
		return utils.OperationFailed("update shift", "encode snapshot", err)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(`UPDATE shift_snapshots SET document = ? WHERE id = ?`), string(doc), id); err != nil {
		return utils.OperationFailed("update shift", "store write failed", err)
	}
	return nil
}

// DeleteShift removes the first matching snapshot.
func (s *SQLStore) DeleteShift(ctx context.Context, date string, shift int) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM shift_snapshots WHERE id = (SELECT id FROM shift_snapshots WHERE date = ? AND shift = ? ORDER BY id LIMIT 1)`), date, shift)
	if err != nil {
		return utils.OperationFailed("delete shift", "store write failed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return utils.OperationFailed("delete shift", "rows affected", err)
	}
	if n == 0 {
		return shiftNotFound("delete shift", date, shift)
	}
	return nil
}

// UpsertAggregate replaces the aggregate for its date and drops cached listings.
func (s *SQLStore) UpsertAggregate(ctx context.Context, aggregate models.DailyAggregate) error {
	doc, err := json.Marshal(aggregate)
	if err != nil {
		return utils.OperationFailed("upsert aggregate", "encode aggregate", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO daily_aggregates (date, document) VALUES (?, ?) ON CONFLICT (date) DO UPDATE SET document = excluded.document`),
		aggregate.Date, string(doc))
	if err != nil {
		return utils.OperationFailed("upsert aggregate", "store write failed", err)
	}
	s.bumpGeneration(ctx)
	return nil
}

// bumpGeneration moves listings onto fresh cache keys. A reader that loaded rows before
// the write can only fill keys of the old generation, which nobody reads again.
func (s *SQLStore) bumpGeneration(ctx context.Context) {
	if s.cacheTTL <= 0 {
		return
	}
	previous := s.generation(ctx)
	next := strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(s.sequence.Add(1), 36)
	if err := s.cache.Set(ctx, aggregatesGenerationKey, []byte(next), 0); err != nil {
		s.logger.Warn("aggregate cache generation bump failed", slog.Any("error", err))
	}
	if err := s.cache.Del(ctx, listCacheKey(previous, OrderStored), listCacheKey(previous, OrderByDate)); err != nil {
		s.logger.Warn("aggregate cache invalidation failed", slog.Any("error", err))
	}
}

func (s *SQLStore) generation(ctx context.Context) string {
	gen, err := s.cache.Get(ctx, aggregatesGenerationKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("aggregate cache generation read failed", slog.Any("error", err))
		}
		return "0"
	}
	return string(gen)
}

// FindAggregate returns the aggregate for a date.
func (s *SQLStore) FindAggregate(ctx context.Context, date string) (models.DailyAggregate, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT document FROM daily_aggregates WHERE date = ?`), date).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyAggregate{}, aggregateNotFound("find aggregate", date)
	}
	if err != nil {
		return models.DailyAggregate{}, utils.OperationFailed("find aggregate", "store query failed", err)
	}
	var agg models.DailyAggregate
	if err := json.Unmarshal([]byte(doc), &agg); err != nil {
		return models.DailyAggregate{}, utils.OperationFailed("find aggregate", "decode aggregate", err)
	}
	return agg, nil
}

// ListAggregates returns all aggregates, served from cache when a positive TTL is configured.
func (s *SQLStore) ListAggregates(ctx context.Context, order AggregateOrder) ([]models.DailyAggregate, error) {
	cached := s.cacheTTL > 0
	var key string
	if cached {
		// The generation is read before the query so a concurrent upsert always outdates this fill.
		key = listCacheKey(s.generation(ctx), order)
		if payload, err := s.cache.Get(ctx, key); err == nil {
			var out []models.DailyAggregate
			if err := json.Unmarshal(payload, &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("aggregate cache read failed", slog.Any("error", err))
		}
	}

	query := `SELECT document FROM daily_aggregates ORDER BY id`
	if order == OrderByDate {
		query = `SELECT document FROM daily_aggregates ORDER BY date, id`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, utils.OperationFailed("list aggregates", "store query failed", err)
	}
	out, err := scanDocuments[models.DailyAggregate](rows)
	if err != nil {
		return nil, utils.OperationFailed("list aggregates", "decode aggregates", err)
	}

	if !cached {
		return out, nil
	}
	if payload, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Debug("aggregate cache write failed", slog.Any("error", err))
		}
	}
	return out, nil
}

func (s *SQLStore) firstShift(ctx context.Context, op, date string, shift int) (int64, models.ShiftSnapshot, error) {
	var (
		id  int64
		doc string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, document FROM shift_snapshots WHERE date = ? AND shift = ? ORDER BY id LIMIT 1`), date, shift).Scan(&id, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ShiftSnapshot{}, shiftNotFound(op, date, shift)
	}
	if err != nil {
		return 0, models.ShiftSnapshot{}, utils.OperationFailed(op, "store query failed", err)
	}
	var snap models.ShiftSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return 0, models.ShiftSnapshot{}, utils.OperationFailed(op, "decode snapshot", err)
	}
	return id, snap, nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func listCacheKey(generation string, order AggregateOrder) string {
	return aggregatesCachePrefix + generation + ":" + order.String()
}

func scanDocuments[T any](rows *sql.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
