// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

// MockAttendanceStore is an in-memory database.AttendanceStore
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord

	// Error injection
	SaveError            error
	ListError            error
	CountError           error
	CountByIdentityError error

	// SaveHook runs before a save is applied (for blocking or inspecting writes)
	SaveHook func(rec *database.AttendanceRecord)
}

// NewMockAttendanceStore creates a new empty mock store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{}
}

// AddRecord seeds a record without going through SaveAttendance
func (m *MockAttendanceStore) AddRecord(rec database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.records = append(m.records, rec)
}

// Records returns a copy of all stored records in insertion order
func (m *MockAttendanceStore) Records() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}

// SaveAttendance stores a record
func (m *MockAttendanceStore) SaveAttendance(ctx context.Context, rec *database.AttendanceRecord) error {
	if m.SaveHook != nil {
		m.SaveHook(rec)
	}
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := rec.Prepare(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *MockAttendanceStore) matching(filter database.AttendanceFilter) []database.AttendanceRecord {
	var out []database.AttendanceRecord
	for i := range m.records {
		if filter.Matches(&m.records[i]) {
			out = append(out, m.records[i])
		}
	}
	return out
}

// ListAttendance returns matching records newest first
func (m *MockAttendanceStore) ListAttendance(ctx context.Context, filter database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.matching(filter)
	slices.SortStableFunc(out, func(a, b database.AttendanceRecord) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if filter.Limit > 0 {
		start := min(filter.Offset, len(out))
		end := min(start+filter.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

// CountAttendance counts matching records
func (m *MockAttendanceStore) CountAttendance(ctx context.Context, filter database.AttendanceFilter) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(filter)), nil
}

// CountByIdentity counts matching records per identity
func (m *MockAttendanceStore) CountByIdentity(ctx context.Context, filter database.AttendanceFilter) (map[string]int, error) {
	if m.CountByIdentityError != nil {
		return nil, m.CountByIdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, rec := range m.matching(filter) {
		counts[rec.Identity]++
	}
	return counts, nil
}
