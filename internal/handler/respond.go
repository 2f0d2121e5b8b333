package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/partnerdash/api/internal/middleware"
	"github.com/partnerdash/api/internal/order"
	"github.com/partnerdash/api/internal/service"
)

// SessionLookup returns the store for a restaurant. Satisfied by
// (*service.Sessions).Get through Lookup.
type SessionLookup func(ctx context.Context, restaurantID uuid.UUID) (OrderSession, error)

// Lookup adapts a session registry to SessionLookup.
func Lookup(s *service.Sessions) SessionLookup {
	return func(ctx context.Context, restaurantID uuid.UUID) (OrderSession, error) {
		return s.Get(ctx, restaurantID)
	}
}

// session resolves the caller's store from the token. It writes the error
// response and returns nil when that fails.
func session(w http.ResponseWriter, r *http.Request, lookup SessionLookup) OrderSession {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil
	}
	s, err := lookup(r.Context(), claims.RestaurantID)
	if err != nil {
		writeError(w, r, "open session", err)
		return nil
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, order.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrRestaurantOffline):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBackend):
		slog.ErrorContext(r.Context(), op, slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream rejected the change"})
	default:
		slog.ErrorContext(r.Context(), op, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isValidationError checks if the error is a known validation error
// that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, order.ErrCustomerRequired) ||
		errors.Is(err, order.ErrInvalidType) ||
		errors.Is(err, order.ErrEmptyItems) ||
		errors.Is(err, order.ErrItemName) ||
		errors.Is(err, order.ErrInvalidQuantity) ||
		errors.Is(err, order.ErrNegativePrice) ||
		errors.Is(err, order.ErrNegativeTotal) ||
		errors.Is(err, order.ErrNegativePrepTime) ||
		errors.Is(err, order.ErrPrepTimeTooLarge) ||
		errors.Is(err, order.ErrMoneyPrecision) ||
		errors.Is(err, order.ErrInvalidTab)
}
