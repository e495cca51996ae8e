package handler

import (
	"encoding/json"
	"net/http"

	"pulse/internal/auth"
)

type AuthHandler struct {
	JWT *auth.JWT
	// AdminPasswordHash is the bcrypt hash of the single admin credential.
	AdminPasswordHash string
}

type loginReq struct {
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Password == "" || !auth.ComparePassword(h.AdminPasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.JWT.Sign("admin")
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": token,
	})
}
