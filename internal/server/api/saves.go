// Package api provides the JSON API handlers of the AirMarker viewer.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/airmarker/internal/export"
	"github.com/ayusman/airmarker/internal/store"
)

// SavesHandler handles HTTP requests for saved drawings.
type SavesHandler struct {
	store *store.Store
}

// NewSavesHandler creates a new SavesHandler with the given store.
func NewSavesHandler(s *store.Store) *SavesHandler {
	return &SavesHandler{store: s}
}

// ServeHTTP routes /api/saves, /api/saves/{id} and /api/saves/{id}/export.pdf.
func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/saves")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case rest == "export.pdf" && r.Method == http.MethodGet:
		h.exportPDF(w, r, id)
	case rest == "" || rest == "export.pdf":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type segmentResponse struct {
	X1        int    `json:"x1"`
	Y1        int    `json:"y1"`
	X2        int    `json:"x2"`
	Y2        int    `json:"y2"`
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
}

type saveResponse struct {
	ID        string            `json:"id"`
	Path      string            `json:"path"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Segments  int               `json:"segments"`
	CreatedAt string            `json:"created_at"`
	History   []segmentResponse `json:"history,omitempty"`
}

type listSavesResponse struct {
	Saves []saveResponse `json:"saves"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(sv *store.Save) saveResponse {
	return saveResponse{
		ID:        sv.ID,
		Path:      sv.Path,
		Width:     sv.Width,
		Height:    sv.Height,
		Segments:  sv.Segments,
		CreatedAt: sv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func hexColor(seg store.Segment) string {
	return fmt.Sprintf("#%02x%02x%02x", seg.Color.R, seg.Color.G, seg.Color.B)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *SavesHandler) list(w http.ResponseWriter, r *http.Request) {
	saves, err := h.store.Saves().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list saves")
		return
	}

	response := listSavesResponse{
		Saves: make([]saveResponse, 0, len(saves)),
	}
	for _, sv := range saves {
		response.Saves = append(response.Saves, toResponse(sv))
	}

	writeJSON(w, http.StatusOK, response)
}

// get returns a save including its segment history.
func (h *SavesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sv, err := h.store.Saves().Get(id)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	segs, err := h.store.Saves().Segments(id)
	if err != nil {
		h.lookupError(w, err)
		return
	}

	resp := toResponse(sv)
	resp.History = make([]segmentResponse, 0, len(segs))
	for _, seg := range segs {
		resp.History = append(resp.History, segmentResponse{
			X1: seg.Start.X, Y1: seg.Start.Y,
			X2: seg.End.X, Y2: seg.End.Y,
			Color:     hexColor(seg),
			Thickness: seg.Thickness,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SavesHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Saves().Delete(id); err != nil {
		h.lookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavesHandler) exportPDF(w http.ResponseWriter, r *http.Request, id string) {
	sv, err := h.store.Saves().Get(id)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	segs, err := h.store.Saves().Segments(id)
	if err != nil {
		h.lookupError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.PDF(&buf, sv.Width, sv.Height, segs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="airmarker-`+sv.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *SavesHandler) lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Save not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to read save")
}
