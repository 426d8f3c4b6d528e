package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

const errInvalidRequestBody = "invalid request body"

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness and whether attempts can be saved.
type HealthResponse struct {
	Status     string `json:"status"`
	Store      string `json:"store,omitempty"`
	StoreReady bool   `json:"store_ready"`
}

var logReplacer = strings.NewReplacer("\n", "", "\r", "")

// sanitizeForLog strips line breaks from client-supplied values (labels,
// query filters) before they are logged.
func sanitizeForLog(s string) string {
	return logReplacer.Replace(s)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// HealthCheck always answers 200 so the process counts as alive; a missing
// store shows up as store_ready=false and attempts end in save failures.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Store:      database.BackendName(),
		StoreReady: database.IsInitialized(),
	})
}
