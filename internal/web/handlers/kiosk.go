package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
)

// KioskHandler exposes the kiosk state.
type KioskHandler struct {
	kiosk *attendance.Kiosk
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(kiosk *attendance.Kiosk) *KioskHandler {
	return &KioskHandler{kiosk: kiosk}
}

// Get returns the current kiosk state.
func (h *KioskHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.kiosk.Snapshot())
}

// DismissToast clears the toast and returns the new state.
func (h *KioskHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	h.kiosk.DismissToast()
	respondJSON(w, http.StatusOK, h.kiosk.Snapshot())
}
