package events

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	sdk "github.com/segmentio/kafka-go"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

type fakeWriter struct {
	messages []sdk.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...sdk.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testRecord() *database.AttendanceRecord {
	return &database.AttendanceRecord{
		ID:         uuid.New(),
		Identity:   "Widia",
		Timestamp:  time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC),
		Confidence: 0.93,
		Classifier: "tfserving",
	}
}

func TestNewAttendanceEvent(t *testing.T) {
	rec := testRecord()
	event := NewAttendanceEvent(rec)

	if event.Type != TypeAttendanceRecorded {
		t.Errorf("expected type %s, got %s", TypeAttendanceRecorded, event.Type)
	}
	if event.RecordID != rec.ID || event.Identity != "Widia" {
		t.Errorf("unexpected event %+v", event)
	}
	if event.Timestamp != "2024-05-06T07:08:09.010Z" {
		t.Errorf("unexpected timestamp %s", event.Timestamp)
	}
	if event.ID == uuid.Nil {
		t.Error("expected event ID")
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "attendance"}

	event := NewAttendanceEvent(testRecord())
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "Widia" {
		t.Errorf("expected key Widia, got %s", msg.Key)
	}

	var decoded AttendanceEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	if decoded.ID != event.ID || decoded.Confidence != 0.93 {
		t.Errorf("decoded event mismatch: %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Error("expected writer to be closed")
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "attendance"}
	if err := p.Publish(context.Background(), NewAttendanceEvent(testRecord())); err == nil {
		t.Error("expected error")
	}
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(&config.KafkaConfig{})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	if _, ok := p.(NopPublisher); !ok {
		t.Errorf("expected NopPublisher without brokers, got %T", p)
	}

	p, err = NewPublisher(&config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "attendance"})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	if _, ok := p.(*KafkaPublisher); !ok {
		t.Errorf("expected KafkaPublisher, got %T", p)
	}

	if _, err := NewPublisher(&config.KafkaConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("expected error without topic")
	}
}

func TestMemoryPublisher(t *testing.T) {
	p := &MemoryPublisher{}
	p.Publish(context.Background(), AttendanceEvent{Identity: "Yoga"})
	if got := p.Events(); len(got) != 1 || got[0].Identity != "Yoga" {
		t.Errorf("unexpected events %v", got)
	}

	p.Err = errors.New("fail")
	if err := p.Publish(context.Background(), AttendanceEvent{}); err == nil {
		t.Error("expected injected error")
	}
}
