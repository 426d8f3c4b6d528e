package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
)

const testManifest = `{
	"name": "faces",
	"version": "1",
	"labels": ["Sisy", "Widia", "Yoga"],
	"weights": ["group1-shard1of1.bin"]
}`

func testDefaults() config.ModelDefaults {
	return config.LoadDefaults().Model
}

func writeBundle(t *testing.T, dir, manifest string, shards ...string) string {
	t.Helper()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	for _, shard := range shards {
		if err := os.WriteFile(filepath.Join(dir, shard), []byte{0, 1, 2}, 0o644); err != nil {
			t.Fatalf("failed to write shard: %v", err)
		}
	}
	return path
}

func TestLoader_LocalFile(t *testing.T) {
	path := writeBundle(t, t.TempDir(), testManifest, "group1-shard1of1.bin")

	m, err := NewLoader(path, testDefaults()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Name != "faces" {
		t.Errorf("expected name faces, got %s", m.Name)
	}
	if m.Input != (InputSpec{Height: 224, Width: 224, Channels: 3, Scale: 255}) {
		t.Errorf("unexpected input defaults: %+v", m.Input)
	}
	if m.Threshold != 0.8 {
		t.Errorf("expected default threshold 0.8, got %f", m.Threshold)
	}
	if m.Source != path {
		t.Errorf("expected source %s, got %s", path, m.Source)
	}
	if m.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}
}

func TestLoader_TFJSWeightsManifest(t *testing.T) {
	manifest := `{
		"name": "faces",
		"labels": ["Sisy", "Widia", "Yoga"],
		"threshold": 0.9,
		"weightsManifest": [{"paths": ["a.bin", "b.bin"]}]
	}`
	path := writeBundle(t, t.TempDir(), manifest, "a.bin", "b.bin")

	m, err := NewLoader(path, testDefaults()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Weights) != 2 || m.Weights[0] != "a.bin" {
		t.Errorf("expected weights [a.bin b.bin], got %v", m.Weights)
	}
	if m.Threshold != 0.9 {
		t.Errorf("expected manifest threshold 0.9, got %f", m.Threshold)
	}
}

func TestLoader_LabelsFromDefaults(t *testing.T) {
	path := writeBundle(t, t.TempDir(), `{"name": "faces", "weights": ["w.bin"]}`, "w.bin")

	m, err := NewLoader(path, testDefaults()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Labels) != 3 || m.Labels[0] != "Sisy" {
		t.Errorf("expected default labels, got %v", m.Labels)
	}
}

func TestLoader_FailureNotCached(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, testManifest)
	loader := NewLoader(path, testDefaults())

	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing weights shard")
	}
	if loader.Cached() != nil {
		t.Error("failed load must not be cached")
	}

	if err := os.WriteFile(filepath.Join(dir, "group1-shard1of1.bin"), []byte{1}, 0o644); err != nil {
		t.Fatalf("failed to write shard: %v", err)
	}
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestLoader_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, testManifest, "group1-shard1of1.bin")
	loader := NewLoader(path, testDefaults())

	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeBundle(t, dir, `{"name": "faces", "version": "2", "weights": ["group1-shard1of1.bin"]}`)

	cached, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cached != first {
		t.Error("expected cached manifest to be returned")
	}

	loader.Reload()
	if loader.Cached() != nil {
		t.Error("expected cache to be empty after Reload")
	}

	reloaded, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Version != "2" {
		t.Errorf("expected version 2 after reload, got %s", reloaded.Version)
	}
}

func TestLoader_HTTP(t *testing.T) {
	var heads int
	mux := http.NewServeMux()
	mux.HandleFunc("/model/model.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "faces", "weights": ["weights/shard1.bin"]}`))
	})
	mux.HandleFunc("/model/weights/shard1.bin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads++
		}
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	m, err := NewLoader(server.URL+"/model/model.json", testDefaults()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Name != "faces" {
		t.Errorf("expected name faces, got %s", m.Name)
	}
	if heads != 1 {
		t.Errorf("expected one HEAD request for the shard, got %d", heads)
	}
}

func TestLoader_HTTPErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok/model.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "faces", "weights": ["missing.bin"]}`))
	})
	mux.HandleFunc("/broken/model.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name    string
		path    string
		invalid bool
	}{
		{"manifest not found", "/nope/model.json", false},
		{"missing shard", "/ok/model.json", false},
		{"malformed manifest", "/broken/model.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(server.URL+tt.path, testDefaults()).Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalidManifest) != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidManifest) = %v, want %v (%v)", !tt.invalid, tt.invalid, err)
			}
		})
	}
}

func TestLoader_NoLocation(t *testing.T) {
	if _, err := NewLoader("", testDefaults()).Load(context.Background()); err == nil {
		t.Error("expected error for empty location")
	}
}

func TestManifest_Validate(t *testing.T) {
	valid := func() Manifest {
		return Manifest{
			Input:     InputSpec{Height: 224, Width: 224, Channels: 3, Scale: 255},
			Labels:    []string{"Sisy", "Widia", "Yoga"},
			Threshold: 0.8,
			Weights:   []string{"w.bin"},
		}
	}

	tests := []struct {
		name   string
		mutate func(m *Manifest)
	}{
		{"no labels", func(m *Manifest) { m.Labels = nil }},
		{"blank label", func(m *Manifest) { m.Labels = []string{"Sisy", " - "} }},
		{"duplicate labels", func(m *Manifest) { m.Labels = []string{"Sisy", "sisy"} }},
		{"zero height", func(m *Manifest) { m.Input.Height = 0 }},
		{"four channels", func(m *Manifest) { m.Input.Channels = 4 }},
		{"negative scale", func(m *Manifest) { m.Input.Scale = -1 }},
		{"threshold above one", func(m *Manifest) { m.Threshold = 1.5 }},
		{"no weights", func(m *Manifest) { m.Weights = nil }},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(&m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("expected ErrInvalidManifest, got %v", err)
			}
		})
	}
}

func TestEffectiveThreshold(t *testing.T) {
	m := &Manifest{Threshold: 0.9}

	if got := EffectiveThreshold(0.7, m); got != 0.7 {
		t.Errorf("override: expected 0.7, got %f", got)
	}
	if got := EffectiveThreshold(0, m); got != 0.9 {
		t.Errorf("manifest: expected 0.9, got %f", got)
	}
	if got := EffectiveThreshold(0, nil); got != 0.8 {
		t.Errorf("default: expected 0.8, got %f", got)
	}
}
