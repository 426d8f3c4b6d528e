package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
)

// ModelHandler reports on and reloads the model manifest.
type ModelHandler struct {
	loader    *classifier.Loader
	threshold float64
}

// NewModelHandler creates a new model handler. threshold is the configured
// override, 0 when unset.
func NewModelHandler(loader *classifier.Loader, threshold float64) *ModelHandler {
	return &ModelHandler{loader: loader, threshold: threshold}
}

// ModelResponse describes the loaded manifest.
type ModelResponse struct {
	*classifier.Manifest
	EffectiveThreshold float64 `json:"effective_threshold"`
}

// Info loads the manifest, using the cache when present.
func (h *ModelHandler) Info(w http.ResponseWriter, r *http.Request) {
	h.respondManifest(w, r)
}

// Reload drops the cached manifest and loads it again.
func (h *ModelHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.loader.Reload()
	log.Printf("model: reloading manifest from %s", sanitizeForLog(h.loader.Location()))
	h.respondManifest(w, r)
}

func (h *ModelHandler) respondManifest(w http.ResponseWriter, r *http.Request) {
	m, err := h.loader.Load(r.Context())
	if err != nil {
		log.Printf("model: failed to load manifest: %v", err)
		respondError(w, http.StatusBadGateway, "failed to load model: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ModelResponse{
		Manifest:           m,
		EffectiveThreshold: classifier.EffectiveThreshold(h.threshold, m),
	})
}
