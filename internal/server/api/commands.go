package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/airmarker/internal/store"
)

// CommandsHandler serves the voice command log.
type CommandsHandler struct {
	store *store.Store
}

// NewCommandsHandler creates a new CommandsHandler with the given store.
func NewCommandsHandler(s *store.Store) *CommandsHandler {
	return &CommandsHandler{store: s}
}

type listCommandsResponse struct {
	Commands []store.CommandEntry `json:"commands"`
}

// ServeHTTP handles GET /api/commands?limit=N.
func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.store.Commands().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list commands")
		return
	}
	if entries == nil {
		entries = []store.CommandEntry{}
	}

	writeJSON(w, http.StatusOK, listCommandsResponse{Commands: entries})
}
