package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"NotiGate/internal/domain/models"
	"NotiGate/internal/domain/repository"
)

// ClickHouseNotificationLog implements NotificationLog on ClickHouse.
type ClickHouseNotificationLog struct {
	db    *sql.DB
	table string
}

// NewClickHouseNotificationLog creates a ClickHouse-backed notification log.
func NewClickHouseNotificationLog(db *sql.DB, table string) repository.NotificationLog {
	return &ClickHouseNotificationLog{db: db, table: table}
}

func (s *ClickHouseNotificationLog) Record(ctx context.Context, rec *models.NotificationRecord) error {
	if rec == nil {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, type, level, priority, outcome, subject) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.Symbol,
		rec.Type,
		rec.Level,
		rec.Priority,
		rec.Outcome,
		rec.Subject,
	)
	return err
}

func (s *ClickHouseNotificationLog) RecordBatch(ctx context.Context, recs []*models.NotificationRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunked to keep
	// statements bounded.
	const chunkSize = 1000
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, rec := range recs[start:end] {
			if rec == nil || rec.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				rec.Timestamp,
				rec.Symbol,
				rec.Type,
				rec.Level,
				rec.Priority,
				rec.Outcome,
				rec.Subject,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, type, level, priority, outcome, subject) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseNotificationLog) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.NotificationRecord, error) {
	q := fmt.Sprintf("SELECT ts, symbol, type, level, priority, outcome, subject FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.NotificationRecord
	for rows.Next() {
		var rec models.NotificationRecord
		if err := rows.Scan(&rec.Timestamp, &rec.Symbol, &rec.Type, &rec.Level, &rec.Priority, &rec.Outcome, &rec.Subject); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (s *ClickHouseNotificationLog) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseNotificationLog) Close() error {
	return nil // Managed by pkg
}
