package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pulse/internal/auth"
	"pulse/internal/inventory"
)

type InventoryHandler struct {
	Svc *inventory.Service
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	f := inventory.ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if s := r.URL.Query().Get("stable"); s == "true" || s == "false" {
		v := s == "true"
		f.Stable = &v
	}
	f.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.Svc.List(r.Context(), f)
	if err != nil {
		writeInventoryErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

type itemStatusReq struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *InventoryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())

	var req itemStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.UpdateStatus(r.Context(), admin, req.ID, req.Status); err != nil {
		writeInventoryErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// ApproveAll backs the review console's "Approve All" button.
func (h *InventoryHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())

	n, err := h.Svc.BulkApprove(r.Context(), admin)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"approved": n})
}

type createItemReq struct {
	Title        string   `json:"title"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
	ListingPrice float64  `json:"listing_price"`
	MemberPrice  *float64 `json:"member_price"`
	SourceCost   float64  `json:"source_cost"`
	StockLevel   int      `json:"stock_level"`
	Images       []string `json:"images"`
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())

	var req createItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	it, err := h.Svc.Create(r.Context(), admin, inventory.CreateInput{
		Title:        req.Title,
		Brand:        req.Brand,
		Category:     req.Category,
		ListingPrice: req.ListingPrice,
		MemberPrice:  req.MemberPrice,
		SourcePrice:  req.SourceCost,
		StockLevel:   req.StockLevel,
		Images:       req.Images,
	})
	if err != nil {
		writeInventoryErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(it)
}

// updateItemReq mirrors the explicit allow-listed field set: absent keys
// stay untouched, unknown keys are dropped by the decoder. Status is not
// writable here.
type updateItemReq struct {
	Title        *string  `json:"title"`
	Brand        *string  `json:"brand"`
	Category     *string  `json:"category"`
	ListingPrice *float64 `json:"listing_price"`
	MemberPrice  *float64 `json:"member_price"`
	SourceCost   *float64 `json:"source_cost"`
	StockLevel   *int     `json:"stock_level"`
	Images       []string `json:"images"`
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	it, err := h.Svc.Update(r.Context(), admin, id, inventory.UpdateInput{
		Title:        req.Title,
		Brand:        req.Brand,
		Category:     req.Category,
		ListingPrice: req.ListingPrice,
		MemberPrice:  req.MemberPrice,
		SourcePrice:  req.SourceCost,
		StockLevel:   req.StockLevel,
		Images:       req.Images,
	})
	if err != nil {
		writeInventoryErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(it)
}

// Delete is a soft delete: the row moves to archived and stays queryable
// for audit and order links.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Svc.Archive(r.Context(), admin, id); err != nil {
		writeInventoryErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func writeInventoryErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, inventory.ErrInvalidStatus), errors.Is(err, inventory.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
