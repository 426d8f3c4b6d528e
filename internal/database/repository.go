package database

import (
	"context"
)

// AttendanceWriter stores attendance records
type AttendanceWriter interface {
	// SaveAttendance persists one record. ID and CreatedAt are filled in when zero.
	SaveAttendance(ctx context.Context, rec *AttendanceRecord) error
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// ListAttendance returns records matching the filter, newest first
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
	// CountAttendance returns the number of records matching the filter (Limit/Offset ignored)
	CountAttendance(ctx context.Context, filter AttendanceFilter) (int, error)
	// CountByIdentity returns record counts per identity (Limit/Offset ignored)
	CountByIdentity(ctx context.Context, filter AttendanceFilter) (map[string]int, error)
}

// AttendanceStore is implemented by every storage backend.
type AttendanceStore interface {
	AttendanceReader
	AttendanceWriter
}
