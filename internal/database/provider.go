package database

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned when no storage backend has been registered.
var ErrNotInitialized = errors.New("attendance store not initialized: configure STORE_BACKEND")

var (
	backendMu        sync.RWMutex
	backendName      string
	attendanceReader func() AttendanceReader
	attendanceWriter func() AttendanceWriter
)

// RegisterAttendanceBackend registers repository constructors for the active backend.
// This is called by the backend packages to avoid import cycles.
func RegisterAttendanceBackend(name string, reader func() AttendanceReader, writer func() AttendanceWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendName = name
	attendanceReader = reader
	attendanceWriter = writer
}

// RegisterStore registers a single store value under name.
func RegisterStore(name string, store AttendanceStore) {
	RegisterAttendanceBackend(name,
		func() AttendanceReader { return store },
		func() AttendanceWriter { return store },
	)
}

// ResetBackend clears the registered backend.
func ResetBackend() {
	RegisterAttendanceBackend("", nil, nil)
}

// IsInitialized returns whether a backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return attendanceReader != nil && attendanceWriter != nil
}

// BackendName returns the registered backend name, or "" if none.
func BackendName() string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName
}

// GetAttendanceWriter returns an AttendanceWriter from the active backend
func GetAttendanceWriter(ctx context.Context) (AttendanceWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if attendanceWriter == nil {
		return nil, ErrNotInitialized
	}
	return attendanceWriter(), nil
}

// GetAttendanceReader returns an AttendanceReader from the active backend
func GetAttendanceReader(ctx context.Context) (AttendanceReader, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if attendanceReader == nil {
		return nil, ErrNotInitialized
	}
	return attendanceReader(), nil
}
