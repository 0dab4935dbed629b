package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	pkgch "github.com/kimyeonkyu7453/SPP/pkg/clickhouse"
	applogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// CHForecastStore implements ForecastStore backed by ClickHouse.
type CHForecastStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.ForecastStore = (*CHForecastStore)(nil)

func NewCHForecastStore(ch *pkgch.Client, database, table string) *CHForecastStore {
	return &CHForecastStore{ch: ch, db: ch.DB(), table: qualifiedTable(database, table)}
}

// SetLogger injects a structured logger.
func (s *CHForecastStore) SetLogger(l *applogger.Logger) { s.l = l }

func qualifiedTable(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}

func forecastSchema(database, table string) []string {
	stmts := []string{}
	if database != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database))
	}
	stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id        String,
            symbol        LowCardinality(String),
            step          UInt16,
            date          Date,
            price         Float64,
            best_val_loss Float64,
            created_at    DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(created_at)
        ORDER BY (symbol, created_at, step)
    `, qualifiedTable(database, table)))
	return stmts
}

// Init creates the database and table when missing.
func (s *CHForecastStore) Init(ctx context.Context) error {
	db, table := splitTable(s.table)
	return s.ch.InitSchema(ctx, forecastSchema(db, table))
}

func splitTable(q string) (string, string) {
	for i := 0; i < len(q); i++ {
		if q[i] == '.' {
			return q[:i], q[i+1:]
		}
	}
	return "", q
}

// Save inserts one row per forecast step in a single batch.
func (s *CHForecastStore) Save(ctx context.Context, res *models.ForecastResult) error {
	start := time.Now()
	records := res.Records()
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (run_id, symbol, step, date, price, best_val_loss, created_at)", s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Symbol, uint16(r.Step), r.Date, r.Price, r.BestValLoss, r.CreatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append forecast row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_forecast commit error",
				applogger.String("table", s.table),
				applogger.String("symbol", res.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("commit batch: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse save_forecast ok",
			applogger.String("table", s.table),
			applogger.String("symbol", res.Symbol),
			applogger.Int("rows", len(records)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// History returns up to limit rows of the symbol's most recent runs, newest run first.
func (s *CHForecastStore) History(ctx context.Context, symbol string, limit int) ([]models.ForecastRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT run_id, symbol, step, date, price, best_val_loss, created_at
        FROM %s
        WHERE symbol = ?
        ORDER BY created_at DESC, step ASC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ForecastRecord, 0, limit)
	for rows.Next() {
		var r models.ForecastRecord
		var step uint16
		if err := rows.Scan(&r.RunID, &r.Symbol, &step, &r.Date, &r.Price, &r.BestValLoss, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		r.Step = int(step)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse history ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHForecastStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHForecastStore) Close() error { return s.ch.Close() }
