package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Classifier    string         `json:"classifier"`
	Store         string         `json:"store"`
	StoreReady    bool           `json:"store_ready"`
	Threshold     float64        `json:"threshold"`
	Labels        []string       `json:"labels"`
	ModelURL      string         `json:"model_url"`
	EventsEnabled bool           `json:"events_enabled"`
	Providers     []ProviderInfo `json:"providers"`
}

// ProviderInfo represents information about a classifier backend
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the active configuration. Threshold and labels are the
// configured defaults; the loaded manifest may override them.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{Name: classifier.BackendTFServing, Available: true},
		{Name: classifier.BackendOpenAI, Available: h.config.OpenAI.Token != ""},
		{Name: classifier.BackendGemini, Available: h.config.Gemini.APIKey != ""},
		{Name: classifier.BackendOllama, Available: true},
		{Name: classifier.BackendLlamaCpp, Available: true},
	}

	threshold := h.config.Classifier.Threshold
	if threshold <= 0 {
		threshold = h.config.Defaults.Model.Threshold
	}
	if threshold <= 0 {
		threshold = constants.DefaultConfidenceThreshold
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Classifier:    h.config.Classifier.Backend,
		Store:         h.config.Store.Backend,
		StoreReady:    database.IsInitialized(),
		Threshold:     threshold,
		Labels:        h.config.Defaults.Model.Labels,
		ModelURL:      h.config.Model.URL,
		EventsEnabled: len(h.config.Kafka.Brokers) > 0,
		Providers:     providers,
	})
}
