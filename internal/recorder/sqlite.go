package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"TickerSentinel/internal/model"
)

// SQLiteRecorder persists retrieved prices to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_bars (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			granularity TEXT NOT NULL,
			entry_date  TEXT NOT NULL,
			open_price  TEXT,
			high_price  TEXT,
			low_price   TEXT,
			close_price TEXT,
			volume      TEXT,
			updated_at  INTEGER NOT NULL,
			UNIQUE (symbol, granularity, entry_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_bars_symbol ON price_bars(symbol, granularity, entry_date)`,

		`CREATE TABLE IF NOT EXISTS job_executions (
			id          TEXT PRIMARY KEY,
			job_name    TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			status      TEXT,
			processed   INTEGER,
			failed      INTEGER,
			message     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_executions_started ON job_executions(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBars upserts bars keyed by symbol, granularity and date.
func (r *SQLiteRecorder) RecordBars(symbol string, granularity model.Granularity, bars []model.OHLCV) error {
	if len(bars) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO price_bars
		(symbol, granularity, entry_date, open_price, high_price, low_price, close_price, volume, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, granularity, entry_date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, b := range bars {
		if _, err := stmt.Exec(symbol, string(granularity), b.Time.Format("2006-01-02"),
			b.Open.String(), b.High.String(), b.Low.String(), b.Close.String(), b.Volume.String(), now); err != nil {
			return fmt.Errorf("insert %s %s: %w", symbol, b.Time.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// LastClose returns the close of the most recent stored bar.
func (r *SQLiteRecorder) LastClose(symbol string, granularity model.Granularity) (decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closePrice string
	err := r.db.QueryRow(`SELECT close_price FROM price_bars
		WHERE symbol = ? AND granularity = ?
		ORDER BY entry_date DESC LIMIT 1`, symbol, string(granularity)).Scan(&closePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(closePrice)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse close %q: %w", closePrice, err)
	}
	return d, true, nil
}

func (r *SQLiteRecorder) RecordJobExecution(job *JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO job_executions
		(id, job_name, started_at, finished_at, status, processed, failed, message)
		VALUES (?,?,?,?,?,?,?,?)`,
		job.ID.String(), job.JobName, job.StartedAt.Unix(), job.FinishedAt.Unix(),
		string(job.Status), job.Processed, job.Failed, job.Message,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
