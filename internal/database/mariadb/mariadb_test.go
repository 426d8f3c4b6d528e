package mariadb

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	dsn, err := normalizeDSN("kiosk:secret@tcp(db:3306)/attendance")
	if err != nil {
		t.Fatalf("normalizeDSN failed: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime=true in %s", dsn)
	}
	if !strings.HasPrefix(dsn, "kiosk:secret@tcp(db:3306)/attendance") {
		t.Errorf("unexpected DSN %s", dsn)
	}
}

func TestNormalizeDSN_Invalid(t *testing.T) {
	if _, err := normalizeDSN("kiosk@tcp(db:3306"); err == nil {
		t.Error("expected error for malformed DSN")
	}
}

func TestNewPool_RequiresDSN(t *testing.T) {
	if _, err := NewPool(""); err == nil {
		t.Error("expected error for empty DSN")
	}
}
