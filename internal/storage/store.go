// Package storage persists users, signals, and backtest runs in a relational
// store: a local SQLite file by default, PostgreSQL when DATABASE_URL is set.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/models"
)

// Store implements models.SignalStore on database/sql. Queries are written
// with ? placeholders and rebound for PostgreSQL.
type Store struct {
	db     *sql.DB
	driver string
	log    zerolog.Logger
}

// Open connects to the configured database and creates missing tables.
func Open(cfg *config.Config) (*Store, error) {
	var (
		db     *sql.DB
		driver string
		err    error
	)

	if cfg.DatabaseURL != "" {
		driver = "postgres"
		db, err = sql.Open("postgres", cfg.DatabaseURL)
	} else {
		driver = "sqlite"
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: creating database directory: %v", models.ErrStorage, err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DatabasePath)
		db, err = sql.Open("sqlite", dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", models.ErrStorage, driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging %s: %v", models.ErrStorage, driver, err)
	}

	s := &Store{
		db:     db,
		driver: driver,
		log:    log.With().Str("component", "storage").Str("driver", driver).Logger(),
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info().Msg("database ready")
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			joined_at TIMESTAMP NOT NULL,
			last_activity TIMESTAMP NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			ts TIMESTAMP NOT NULL,
			symbol TEXT NOT NULL,
			direction TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			score INTEGER NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			quality TEXT NOT NULL,
			snapshot TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			start_date TIMESTAMP NOT NULL,
			end_date TIMESTAMP NOT NULL,
			days INTEGER NOT NULL,
			signals_per_day INTEGER NOT NULL,
			total_signals INTEGER NOT NULL,
			wins INTEGER NOT NULL,
			losses INTEGER NOT NULL,
			unresolved INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			win_rate DOUBLE PRECISION NOT NULL,
			total_pnl DOUBLE PRECISION NOT NULL,
			avg_win DOUBLE PRECISION NOT NULL,
			avg_loss DOUBLE PRECISION NOT NULL,
			performance TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating tables: %v", models.ErrStorage, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveSignal inserts a signal. Signal IDs are deterministic per bar, so
// replays of the same bar are idempotent.
func (s *Store) SaveSignal(ctx context.Context, sig *models.Signal) error {
	snapshot, err := json.Marshal(sig.Snapshot)
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot: %v", models.ErrStorage, err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO signals (
			id, ts, symbol, direction, confidence, score,
			entry_price, stop_loss, take_profit, quality, snapshot
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		sig.ID, sig.Timestamp.UTC(), sig.Symbol, string(sig.Direction), sig.Confidence, sig.Score,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit, string(sig.Quality), string(snapshot))
	if err != nil {
		return fmt.Errorf("%w: saving signal: %v", models.ErrStorage, err)
	}
	return nil
}

// Signals returns signals for a symbol issued at or after since, oldest first.
func (s *Store) Signals(ctx context.Context, symbol string, since time.Time) ([]models.Signal, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, ts, symbol, direction, confidence, score,
		       entry_price, stop_loss, take_profit, quality, snapshot
		FROM signals
		WHERE symbol = ? AND ts >= ?
		ORDER BY ts
	`), symbol, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: querying signals: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var (
			sig                          models.Signal
			direction, quality, snapshot string
		)
		if err := rows.Scan(
			&sig.ID, &sig.Timestamp, &sig.Symbol, &direction, &sig.Confidence, &sig.Score,
			&sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit, &quality, &snapshot,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning signal: %v", models.ErrStorage, err)
		}
		sig.Direction = models.Direction(direction)
		sig.Quality = models.Quality(quality)
		if err := json.Unmarshal([]byte(snapshot), &sig.Snapshot); err != nil {
			return nil, fmt.Errorf("%w: decoding snapshot: %v", models.ErrStorage, err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating signals: %v", models.ErrStorage, err)
	}
	return signals, nil
}

// SaveBacktestRun inserts a run's headline statistics. Run IDs are
// deterministic per window and settings, so reruns are idempotent.
func (s *Store) SaveBacktestRun(ctx context.Context, run *models.BacktestRun) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO backtest_runs (
			id, symbol, start_date, end_date, days, signals_per_day,
			total_signals, wins, losses, unresolved, skipped,
			win_rate, total_pnl, avg_win, avg_loss, performance, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		run.ID, run.Symbol, run.StartDate.UTC(), run.EndDate.UTC(), run.Days, run.SignalsPerDay,
		run.TotalSignals, run.Wins, run.Losses, run.Unresolved, run.Skipped,
		run.WinRate, run.TotalPnL, run.AvgWin, run.AvgLoss, string(run.Performance), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: saving backtest run: %v", models.ErrStorage, err)
	}
	return nil
}

// UpsertUser registers a user or refreshes an existing row.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (user_id, username, first_name, joined_at, last_activity, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_activity = EXCLUDED.last_activity,
			is_active = EXCLUDED.is_active
	`),
		u.UserID, u.Username, u.FirstName, u.JoinedAt.UTC(), u.LastActivity.UTC(), u.IsActive)
	if err != nil {
		return fmt.Errorf("%w: upserting user: %v", models.ErrStorage, err)
	}
	return nil
}

// TouchUser bumps a user's last activity timestamp.
func (s *Store) TouchUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET last_activity = ? WHERE user_id = ?
	`), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("%w: touching user: %v", models.ErrStorage, err)
	}
	return nil
}

// BotStats aggregates the operator-facing usage counters. Active users are
// those seen within the last 7 days; daily signals count from UTC midnight.
func (s *Store) BotStats(ctx context.Context) (*models.BotStats, error) {
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	dayStart := now.Truncate(24 * time.Hour)

	stats := &models.BotStats{}
	queries := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&stats.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
		{&stats.ActiveUsers, `SELECT COUNT(*) FROM users WHERE is_active AND last_activity >= ?`, []any{weekAgo}},
		{&stats.TotalSignals, `SELECT COUNT(*) FROM signals`, nil},
		{&stats.DailySignals, `SELECT COUNT(*) FROM signals WHERE ts >= ?`, []any{dayStart}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, s.rebind(q.query), q.args...).Scan(q.dst); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("%w: reading stats: %v", models.ErrStorage, err)
		}
	}
	return stats, nil
}
