package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	"github.com/kozaktomas/attendance-kiosk/internal/database/mock"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Classifier: config.ClassifierConfig{Backend: "tfserving"},
		Store:      config.StoreConfig{Backend: "sqlite"},
		Model:      config.ModelConfig{URL: "model/model.json"},
		Defaults:   config.LoadDefaults(),
	}
}

// staticLoader serves a fixed manifest.
type staticLoader struct{}

func (staticLoader) Load(ctx context.Context) (*classifier.Manifest, error) {
	return &classifier.Manifest{
		Name:      "faces",
		Labels:    []string{"Sisy", "Widia", "Yoga"},
		Threshold: 0.8,
	}, nil
}

// scriptedClassifier returns fixed scores and records the frames it saw.
type scriptedClassifier struct {
	scores  []float64
	release chan struct{}
	started chan struct{}

	mu     sync.Mutex
	frames [][]byte
}

func (c *scriptedClassifier) Name() string { return "scripted" }

func (c *scriptedClassifier) Classify(ctx context.Context, frame []byte, m *classifier.Manifest) ([]float64, error) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		<-c.release
	}
	return c.scores, nil
}

func (c *scriptedClassifier) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// newTestService wires a service against a mock store registered as the
// active backend.
func newTestService(t *testing.T, c *scriptedClassifier) (*attendance.Service, *mock.MockAttendanceStore) {
	t.Helper()
	store := mock.NewMockAttendanceStore()
	database.ResetBackend()
	database.RegisterStore("mock", store)
	t.Cleanup(database.ResetBackend)

	svc := attendance.NewService(attendance.NewKiosk(), attendance.Options{
		Loader:     staticLoader{},
		Classifier: c,
		Store:      store,
		Clock:      func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	return svc, store
}

// writeModelBundle writes model.json and one weights shard into a temp dir.
func writeModelBundle(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "weights.bin"), []byte{0}, 0o644); err != nil {
		t.Fatalf("failed to write shard: %v", err)
	}
	return path
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
