package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"classroom-quiz/internal/app"
	"classroom-quiz/internal/domain"
)

// ReportHandler serves the aggregated results of a room as JSON.
type ReportHandler struct {
	service *app.SessionService
}

func NewReportHandler(service *app.SessionService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ServeHTTP expects to be mounted on "GET /rooms/{name}/report".
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Report(r.Context(), r.PathValue("name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRoomNotFound) || errors.Is(err, domain.ErrInvalidRoomName) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, newErrorPayload(err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Routes mounts the websocket endpoint and the report endpoint on mux.
func Routes(mux *http.ServeMux, service *app.SessionService, opts WSOptions) {
	mux.HandleFunc("GET /ws", NewWSHandler(service, opts).ServeWS)
	mux.Handle("GET /rooms/{name}/report", NewReportHandler(service))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}
