package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/partnerdash/api/internal/enum"
	mw "github.com/partnerdash/api/internal/middleware"
)

// RestaurantHandler exposes the session's online toggle.
type RestaurantHandler struct {
	sessions SessionLookup
}

func NewRestaurantHandler(sessions SessionLookup) *RestaurantHandler {
	return &RestaurantHandler{sessions: sessions}
}

// RegisterRoutes mounts GET and PUT /status. Only owners and managers may
// take the restaurant offline.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.GetStatus)
	r.With(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager)).Put("/status", h.SetStatus)
}

type restaurantStatusRequest struct {
	Online *bool `json:"online"`
}

type restaurantStatusResponse struct {
	RestaurantID string `json:"restaurant_id"`
	Online       bool   `json:"online"`
}

// GetStatus handles GET /restaurant/status.
func (h *RestaurantHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}
	claims := mw.ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, restaurantStatusResponse{
		RestaurantID: claims.RestaurantID.String(),
		Online:       s.Online(),
	})
}

// SetStatus handles PUT /restaurant/status.
func (h *RestaurantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	var req restaurantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Online == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "online is required"})
		return
	}

	if err := s.SetOnline(r.Context(), *req.Online); err != nil {
		writeError(w, r, "set online", err)
		return
	}

	claims := mw.ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, restaurantStatusResponse{
		RestaurantID: claims.RestaurantID.String(),
		Online:       s.Online(),
	})
}
