package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"pulse/internal/command"
)

type CommandHandler struct {
	Store *command.Store
}

type triggerReq struct {
	Command string `json:"command"`
}

// Trigger is the producer entry point: validate the kind, enqueue, return
// the id. Fire-and-forget; the worker picks it up on its own schedule.
func (h *CommandHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	kind := command.Kind(strings.TrimSpace(req.Command))
	cmd, err := h.Store.Enqueue(r.Context(), kind)
	if err != nil {
		if errors.Is(err, command.ErrInvalidKind) {
			http.Error(w, "invalid command", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     cmd.ID,
		"status": cmd.Status,
	})
}

func (h *CommandHandler) Get(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cmd)
}

func (h *CommandHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cmds, err := h.Store.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cmds)
}
