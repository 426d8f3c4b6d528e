// Package storetest holds behaviour tests shared by every attendance store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

var base = time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)

// Run exercises store against the AttendanceStore contract. The store must be empty.
func Run(t *testing.T, store database.AttendanceStore) {
	t.Helper()
	ctx := context.Background()

	seed := []database.AttendanceRecord{
		{Identity: "Sisy", Timestamp: base, Confidence: 0.91, Classifier: "tfserving"},
		{Identity: "Widia", Timestamp: base.Add(time.Hour), Confidence: 0.85, Classifier: "tfserving"},
		{Identity: "Sisy", Timestamp: base.Add(24 * time.Hour), Confidence: 0.99, Classifier: "gemini-2.5-flash"},
		{Identity: "Yoga", Timestamp: base.Add(48*time.Hour + 123*time.Millisecond), Confidence: 0.8, Classifier: "tfserving"},
	}

	t.Run("Save", func(t *testing.T) {
		for i := range seed {
			if err := store.SaveAttendance(ctx, &seed[i]); err != nil {
				t.Fatalf("SaveAttendance failed: %v", err)
			}
			if seed[i].ID == uuid.Nil {
				t.Error("expected ID to be assigned")
			}
		}
	})

	t.Run("SaveInvalid", func(t *testing.T) {
		err := store.SaveAttendance(ctx, &database.AttendanceRecord{Timestamp: base})
		if !errors.Is(err, database.ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord, got %v", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		records, err := store.ListAttendance(ctx, database.AttendanceFilter{})
		if err != nil {
			t.Fatalf("ListAttendance failed: %v", err)
		}
		if len(records) != len(seed) {
			t.Fatalf("expected %d records, got %d", len(seed), len(records))
		}
		first := records[0]
		if first.Identity != "Yoga" {
			t.Errorf("expected newest record Yoga, got %s", first.Identity)
		}
		if first.ID != seed[3].ID {
			t.Errorf("expected ID %s, got %s", seed[3].ID, first.ID)
		}
		if got := first.ISOTimestamp(); got != "2024-03-06T07:00:00.123Z" {
			t.Errorf("expected timestamp 2024-03-06T07:00:00.123Z, got %s", got)
		}
		if first.Confidence != 0.8 || first.Classifier != "tfserving" {
			t.Errorf("unexpected fields %+v", first)
		}
	})

	t.Run("ListFiltered", func(t *testing.T) {
		records, err := store.ListAttendance(ctx, database.AttendanceFilter{Identity: "Sisy"})
		if err != nil {
			t.Fatalf("ListAttendance failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 Sisy records, got %d", len(records))
		}

		records, err = store.ListAttendance(ctx, database.AttendanceFilter{
			Since: base.Add(time.Hour),
			Until: base.Add(48 * time.Hour),
		})
		if err != nil {
			t.Fatalf("ListAttendance failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records in window, got %d", len(records))
		}
		if records[0].Identity != "Sisy" || records[1].Identity != "Widia" {
			t.Errorf("unexpected window order %s, %s", records[0].Identity, records[1].Identity)
		}
	})

	t.Run("ListPaged", func(t *testing.T) {
		records, err := store.ListAttendance(ctx, database.AttendanceFilter{Limit: 2, Offset: 1})
		if err != nil {
			t.Fatalf("ListAttendance failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Identity != "Sisy" || records[1].Identity != "Widia" {
			t.Errorf("unexpected page %s, %s", records[0].Identity, records[1].Identity)
		}
	})

	t.Run("Count", func(t *testing.T) {
		n, err := store.CountAttendance(ctx, database.AttendanceFilter{Limit: 1})
		if err != nil {
			t.Fatalf("CountAttendance failed: %v", err)
		}
		if n != len(seed) {
			t.Errorf("expected %d, got %d", len(seed), n)
		}

		n, err = store.CountAttendance(ctx, database.AttendanceFilter{Identity: "Nobody"})
		if err != nil {
			t.Fatalf("CountAttendance failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0, got %d", n)
		}
	})

	t.Run("CountByIdentity", func(t *testing.T) {
		counts, err := store.CountByIdentity(ctx, database.AttendanceFilter{})
		if err != nil {
			t.Fatalf("CountByIdentity failed: %v", err)
		}
		want := map[string]int{"Sisy": 2, "Widia": 1, "Yoga": 1}
		for name, n := range want {
			if counts[name] != n {
				t.Errorf("%s: expected %d, got %d", name, n, counts[name])
			}
		}
		if len(counts) != len(want) {
			t.Errorf("unexpected identities %v", counts)
		}

		counts, err = store.CountByIdentity(ctx, database.AttendanceFilter{Since: base.Add(time.Minute)})
		if err != nil {
			t.Fatalf("CountByIdentity failed: %v", err)
		}
		if counts["Sisy"] != 1 {
			t.Errorf("expected 1 Sisy since window start, got %d", counts["Sisy"])
		}
	})
}
