package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLRepository implements AttendanceStore on an "attendance" table through
// database/sql. The postgres, mariadb and sqlite backends share it and differ
// only in bind placeholders.
type SQLRepository struct {
	db *sql.DB
	ph Placeholder
}

// NewSQLRepository creates a repository on db using ph for bind parameters.
func NewSQLRepository(db *sql.DB, ph Placeholder) *SQLRepository {
	return &SQLRepository{db: db, ph: ph}
}

func (r *SQLRepository) placeholders(n int) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = r.ph(i + 1)
	}
	return strings.Join(parts, ", ")
}

// SaveAttendance inserts one record
func (r *SQLRepository) SaveAttendance(ctx context.Context, rec *AttendanceRecord) error {
	if err := rec.Prepare(); err != nil {
		return err
	}

	query := `INSERT INTO attendance (id, identity, ts, confidence, classifier, created_at) VALUES (` +
		r.placeholders(6) + `)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Identity, rec.Timestamp, rec.Confidence, rec.Classifier, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save attendance: %w", err)
	}
	return nil
}

// ListAttendance returns matching records, newest first
func (r *SQLRepository) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	where, args := filter.Where(r.ph)
	query := `SELECT id, identity, ts, confidence, classifier, created_at FROM attendance` +
		where + ` ORDER BY ts DESC, id` + filter.Page()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.Identity, &rec.Timestamp, &rec.Confidence, &rec.Classifier, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// CountAttendance returns the number of matching records
func (r *SQLRepository) CountAttendance(ctx context.Context, filter AttendanceFilter) (int, error) {
	where, args := filter.Where(r.ph)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}

// CountByIdentity returns per-identity record counts
func (r *SQLRepository) CountByIdentity(ctx context.Context, filter AttendanceFilter) (map[string]int, error) {
	where, args := filter.Where(r.ph)
	query := `SELECT identity, COUNT(*) FROM attendance` + where + ` GROUP BY identity`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by identity: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var identity string
		var n int
		if err := rows.Scan(&identity, &n); err != nil {
			return nil, fmt.Errorf("scan identity count: %w", err)
		}
		counts[identity] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity counts: %w", err)
	}
	return counts, nil
}
