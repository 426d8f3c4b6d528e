// Package events publishes attendance events to downstream consumers.
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

// TypeAttendanceRecorded is the event type emitted after a successful write.
const TypeAttendanceRecorded = "attendance.recorded"

// AttendanceEvent describes one stored attendance record.
type AttendanceEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	RecordID   uuid.UUID `json:"record_id"`
	Identity   string    `json:"identity"`
	Timestamp  string    `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Classifier string    `json:"classifier"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// NewAttendanceEvent builds the event for a stored record.
func NewAttendanceEvent(rec *database.AttendanceRecord) AttendanceEvent {
	return AttendanceEvent{
		ID:         uuid.New(),
		Type:       TypeAttendanceRecorded,
		RecordID:   rec.ID,
		Identity:   rec.Identity,
		Timestamp:  rec.ISOTimestamp(),
		Confidence: rec.Confidence,
		Classifier: rec.Classifier,
		EmittedAt:  time.Now().UTC(),
	}
}

// Publisher delivers attendance events.
type Publisher interface {
	Publish(ctx context.Context, event AttendanceEvent) error
	Close() error
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AttendanceEvent) error { return nil }
func (NopPublisher) Close() error                                   { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []AttendanceEvent

	// Err is returned from Publish when set
	Err error
}

func (p *MemoryPublisher) Publish(_ context.Context, event AttendanceEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns a copy of the published events.
func (p *MemoryPublisher) Events() []AttendanceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}
