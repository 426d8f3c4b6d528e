package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	"github.com/spf13/cobra"
)

func TestOpenStore_SQLite(t *testing.T) {
	database.ResetBackend()
	t.Cleanup(database.ResetBackend)

	cfg := &config.Config{
		Store:  config.StoreConfig{Backend: "sqlite"},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "attendance.db")},
	}
	closeStore, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer closeStore()

	if database.BackendName() != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", database.BackendName())
	}
}

func TestOpenStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"unknown backend", &config.Config{Store: config.StoreConfig{Backend: "redis"}}},
		{"postgres without url", &config.Config{Store: config.StoreConfig{Backend: "postgres"}}},
		{"mariadb without dsn", &config.Config{Store: config.StoreConfig{Backend: "mariadb"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := openStore(tc.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRecordsFilter(t *testing.T) {
	cmd := recordsSummaryCmd
	t.Cleanup(func() {
		cmd.Flags().Set("identity", "")
		cmd.Flags().Set("since", "")
	})
	cmd.Flags().Set("identity", "Widia")
	cmd.Flags().Set("since", "2024-03-01")

	filter, err := recordsFilter(cmd)
	if err != nil {
		t.Fatalf("recordsFilter failed: %v", err)
	}
	if filter.Identity != "Widia" || !filter.Since.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected filter %+v", filter)
	}

	cmd.Flags().Set("since", "last week")
	if _, err := recordsFilter(cmd); err == nil {
		t.Error("expected error for invalid --since")
	}
}

func TestResolveServeHostPort_Env(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_HOST", "127.0.0.1")

	port, host := resolveServeHostPort(serveCmd)
	if port != 9090 || host != "127.0.0.1" {
		t.Errorf("expected 127.0.0.1:9090, got %s:%d", host, port)
	}
}

type stubLoader struct{}

func (stubLoader) Load(ctx context.Context) (*classifier.Manifest, error) {
	return &classifier.Manifest{Labels: []string{"Sisy", "Widia", "Yoga"}, Threshold: 0.8}, nil
}

type stubClassifier struct{}

func (stubClassifier) Name() string { return "stub" }

func (stubClassifier) Classify(ctx context.Context, frame []byte, m *classifier.Manifest) ([]float64, error) {
	return []float64{0.1, 0.05, 0.85}, nil
}

func TestClassifyFile(t *testing.T) {
	svc := attendance.NewService(attendance.NewKiosk(), attendance.Options{
		Loader:     stubLoader{},
		Classifier: stubClassifier{},
	})

	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := classifyFile(context.Background(), svc, path)
	if result.Identity != "Yoga" || result.Kind != attendance.OutcomeRecognized {
		t.Errorf("unexpected result %+v", result)
	}

	missing := classifyFile(context.Background(), svc, filepath.Join(t.TempDir(), "missing.jpg"))
	if missing.Kind != attendance.OutcomeCaptureFailed || missing.Error == "" {
		t.Errorf("expected capture failure for missing file, got %+v", missing)
	}
}

func TestApplyThresholdFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    float64
		wantErr bool
	}{
		{"0", 0.8, false},
		{"0.95", 0.95, false},
		{"1", 1, false},
		{"1.5", 0.8, true},
		{"-0.1", 0.8, true},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().Float64("threshold", 0, "")
			if err := cmd.Flags().Set("threshold", tc.value); err != nil {
				t.Fatal(err)
			}
			cfg := &config.Config{Classifier: config.ClassifierConfig{Threshold: 0.8}}

			err := applyThresholdFlag(cmd, cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("applyThresholdFlag(%s) error = %v", tc.value, err)
			}
			if cfg.Classifier.Threshold != tc.want {
				t.Errorf("expected threshold %g, got %g", tc.want, cfg.Classifier.Threshold)
			}
		})
	}
}

func TestMustGetFlag_PanicsOnUnknownFlag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an unregistered flag")
		}
	}()
	mustGetBool(&cobra.Command{}, "json")
}
