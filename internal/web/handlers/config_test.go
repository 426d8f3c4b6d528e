package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
)

func getConfig(t *testing.T, cfg *config.Config) ConfigResponse {
	t.Helper()
	recorder := httptest.NewRecorder()
	NewConfigHandler(cfg).Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)
	return result
}

func TestConfigHandler_Get(t *testing.T) {
	cfg := testConfig()
	result := getConfig(t, cfg)

	if result.Classifier != "tfserving" || result.Store != "sqlite" {
		t.Errorf("unexpected backends %s / %s", result.Classifier, result.Store)
	}
	if result.Threshold != 0.8 {
		t.Errorf("expected default threshold 0.8, got %f", result.Threshold)
	}
	if len(result.Labels) != 3 || result.Labels[1] != "Widia" {
		t.Errorf("unexpected labels %v", result.Labels)
	}
	if result.EventsEnabled {
		t.Error("expected events disabled without brokers")
	}
}

func TestConfigHandler_Get_ThresholdOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Classifier.Threshold = 0.9

	if got := getConfig(t, cfg).Threshold; got != 0.9 {
		t.Errorf("expected threshold 0.9, got %f", got)
	}
}

func TestConfigHandler_Get_Providers(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func(*config.Config)
		openai bool
		gemini bool
	}{
		{"no keys", func(*config.Config) {}, false, false},
		{"openai", func(c *config.Config) { c.OpenAI.Token = "sk-test" }, true, false},
		{"gemini", func(c *config.Config) { c.Gemini.APIKey = "key" }, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.cfg(cfg)

			available := make(map[string]bool)
			for _, p := range getConfig(t, cfg).Providers {
				available[p.Name] = p.Available
			}
			if len(available) != 5 {
				t.Fatalf("expected 5 providers, got %d", len(available))
			}
			if available["openai"] != tc.openai || available["gemini"] != tc.gemini {
				t.Errorf("unexpected availability %v", available)
			}
			for _, local := range []string{"tfserving", "ollama", "llamacpp"} {
				if !available[local] {
					t.Errorf("expected %s to be available", local)
				}
			}
		})
	}
}

func TestConfigHandler_Get_EventsEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Kafka.Brokers = []string{"kafka:9092"}

	if !getConfig(t, cfg).EventsEnabled {
		t.Error("expected events enabled with brokers")
	}
}
