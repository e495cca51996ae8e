package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"pulse/internal/order"
)

// WebhookHandler receives the payment provider's checkout-completed event
// and secures the order. Verification here is a shared-secret header; the
// provider integration proper lives upstream.
type WebhookHandler struct {
	Svc    *order.Service
	Secret string
}

type paymentEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}

func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	sig := r.Header.Get("X-Webhook-Secret")
	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(sig), []byte(h.Secret)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var ev paymentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if ev.Type != "checkout.completed" || ev.OrderID == "" {
		// acknowledge and drop events we do not handle
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
		return
	}

	res, err := h.Svc.Secure(r.Context(), ev.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, order.ErrIllegalTransition):
			// already secured; the provider retried the event
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"received":true}`))
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	out := map[string]any{"received": true}
	if res.NotifyErr != nil {
		out["warning"] = "confirmation email failed"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
