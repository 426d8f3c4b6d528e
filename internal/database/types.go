package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ISOTimestampLayout is the ISO-8601 form attendance timestamps are rendered in.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z"

// AttendanceRecord is one recognized check-in.
type AttendanceRecord struct {
	ID         uuid.UUID `json:"id"`
	Identity   string    `json:"identity"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Classifier string    `json:"classifier"`
	CreatedAt  time.Time `json:"created_at"`
}

// ISOTimestamp renders the record timestamp in UTC with millisecond precision.
func (r *AttendanceRecord) ISOTimestamp() string {
	return FormatTimestamp(r.Timestamp)
}

// FormatTimestamp renders t in ISOTimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestampLayout)
}

// ErrInvalidRecord is returned when a record lacks an identity or timestamp.
var ErrInvalidRecord = errors.New("invalid attendance record")

// Prepare validates rec and fills ID and CreatedAt when they are zero.
// Timestamps are normalized to UTC.
func (r *AttendanceRecord) Prepare() error {
	if r.Identity == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidRecord)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidRecord)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.Timestamp = r.Timestamp.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}

// AttendanceFilter narrows listings and counts. Zero values mean "no filter".
type AttendanceFilter struct {
	Identity string
	Since    time.Time // inclusive
	Until    time.Time // exclusive
	Limit    int
	Offset   int
}

// Matches reports whether rec passes the identity and time filters.
func (f AttendanceFilter) Matches(rec *AttendanceRecord) bool {
	if f.Identity != "" && rec.Identity != f.Identity {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !rec.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

// ParseTime accepts RFC 3339 timestamps or plain dates (midnight UTC) for
// filter bounds. An empty string is the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}
