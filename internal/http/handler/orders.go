package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pulse/internal/auth"
	"pulse/internal/order"
)

type OrderHandler struct {
	Svc *order.Service
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.Svc.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orders)
}

type orderStatusReq struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())

	var req orderStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	err := h.Svc.UpdateStatus(r.Context(), admin, req.ID, order.Status(req.Status))
	if err != nil {
		writeOrderErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

type dispatchReq struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *OrderHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req dispatchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	res, err := h.Svc.Dispatch(r.Context(), admin, id, req.TrackingNumber)
	if err != nil {
		writeOrderErr(w, err)
		return
	}

	out := map[string]any{"success": true}
	if res.NotifyErr != nil {
		// the status committed; the missed email is a resend concern
		out["warning"] = "dispatch email failed: " + res.NotifyErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	res, err := h.Svc.Refund(r.Context(), admin, id)
	if err != nil {
		writeOrderErr(w, err)
		return
	}

	out := map[string]any{"success": true}
	if res.RefundErr != nil {
		out["warning"] = "provider refund failed: " + res.RefundErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func writeOrderErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrMissingTracking),
		errors.Is(err, order.ErrNoPaymentRef):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, order.ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
