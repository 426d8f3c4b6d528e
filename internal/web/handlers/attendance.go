package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

// AttendanceHandler runs attempts and lists stored records.
type AttendanceHandler struct {
	service *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// AttemptRequest is the JSON body form of an attempt.
type AttemptRequest struct {
	// Image is a data URL or bare base64 JPEG/PNG.
	Image string `json:"image"`
}

// AttemptErrorResponse is returned with 409 while another attempt is running.
type AttemptErrorResponse struct {
	Error string           `json:"error"`
	State attendance.State `json:"state"`
}

// RecordResponse is one attendance record as rendered by the API.
type RecordResponse struct {
	ID         string  `json:"id"`
	Identity   string  `json:"identity"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Classifier string  `json:"classifier"`
}

// ListResponse is a page of attendance records.
type ListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// SummaryResponse counts records per identity.
type SummaryResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

var errUnsupportedMediaType = errors.New("unsupported content type")

// Attempt runs one attendance attempt. Every outcome, including failures, is
// returned with 200; 409 means another attempt is in flight.
func (h *AttendanceHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFrameSize)

	frame, err := readFrame(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondError(w, http.StatusRequestEntityTooLarge, "frame too large")
		case errors.Is(err, errUnsupportedMediaType):
			respondError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		}
		return
	}

	// The attempt always runs to completion so the kiosk flag is released
	// on the normal path even if the client goes away.
	out, err := h.service.Attempt(context.WithoutCancel(r.Context()), frame)
	if errors.Is(err, attendance.ErrAttemptInProgress) {
		respondJSON(w, http.StatusConflict, AttemptErrorResponse{
			Error: err.Error(),
			State: h.service.Kiosk().Snapshot(),
		})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if out.Recorded() {
		log.Printf("attendance: recorded %s (%.3f)", sanitizeForLog(out.Identity), out.Confidence)
	}
	respondJSON(w, http.StatusOK, out)
}

// readFrame extracts the frame from a multipart form, a raw image body or a
// JSON body. A request without a frame yields nil, which the service reports
// as a capture failure.
func readFrame(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return io.ReadAll(r.Body)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errUnsupportedMediaType, contentType)
	}

	switch {
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(constants.MaxFrameSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("frame")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)

	case mediaType == "application/json":
		var req AttemptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return []byte(req.Image), nil

	case strings.HasPrefix(mediaType, "image/"), mediaType == "application/octet-stream":
		return io.ReadAll(r.Body)
	}

	return nil, fmt.Errorf("%w: %s", errUnsupportedMediaType, mediaType)
}

// List returns attendance records, newest first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := database.GetAttendanceReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "attendance store not available")
		return
	}

	records, err := reader.ListAttendance(r.Context(), filter)
	if err != nil {
		log.Printf("attendance: failed to list records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := reader.CountAttendance(r.Context(), countFilter)
	if err != nil {
		log.Printf("attendance: failed to count records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count attendance")
		return
	}

	resp := ListResponse{
		Records: make([]RecordResponse, 0, len(records)),
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	for i := range records {
		resp.Records = append(resp.Records, RecordResponse{
			ID:         records[i].ID.String(),
			Identity:   records[i].Identity,
			Timestamp:  records[i].ISOTimestamp(),
			Confidence: records[i].Confidence,
			Classifier: records[i].Classifier,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// Summary counts records per identity. Limit and offset are ignored.
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit, filter.Offset = 0, 0

	reader, err := database.GetAttendanceReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "attendance store not available")
		return
	}

	counts, err := reader.CountByIdentity(r.Context(), filter)
	if err != nil {
		log.Printf("attendance: failed to summarize records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to summarize attendance")
		return
	}

	resp := SummaryResponse{Counts: counts}
	for _, n := range counts {
		resp.Total += n
	}
	respondJSON(w, http.StatusOK, resp)
}

// parseFilter reads identity, since, until, limit and offset query params.
func parseFilter(r *http.Request) (database.AttendanceFilter, error) {
	q := r.URL.Query()
	filter := database.AttendanceFilter{
		Identity: strings.TrimSpace(q.Get("identity")),
		Limit:    constants.DefaultRecordLimit,
	}

	var err error
	if filter.Since, err = database.ParseTime(q.Get("since")); err != nil {
		return filter, fmt.Errorf("invalid since: %w", err)
	}
	if filter.Until, err = database.ParseTime(q.Get("until")); err != nil {
		return filter, fmt.Errorf("invalid until: %w", err)
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return filter, fmt.Errorf("invalid limit %q", s)
		}
		filter.Limit = min(n, constants.MaxRecordLimit)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid offset %q", s)
		}
		filter.Offset = n
	}
	return filter, nil
}
