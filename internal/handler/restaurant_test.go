package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/partnerdash/api/internal/enum"
	"github.com/partnerdash/api/internal/handler"
)

func TestRestaurantStatus_Toggle(t *testing.T) {
	rid := uuid.New()
	manager := testClaims(rid)
	manager.Role = enum.UserRoleManager
	router := setupRouter(handler.Lookup(newSessions()))

	rr := doAuthRequest(t, router, "GET", "/restaurant/status", nil, manager)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rr.Code)
	}
	if resp := decodeResponse(t, rr); resp["online"] != true || resp["restaurant_id"] != rid.String() {
		t.Errorf("initial status: got %v", resp)
	}

	rr = doAuthRequest(t, router, "PUT", "/restaurant/status", map[string]bool{"online": false}, manager)
	if rr.Code != http.StatusOK {
		t.Fatalf("set status: got %d; body %s", rr.Code, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["online"] != false {
		t.Errorf("after toggle: got %v", resp)
	}

	// Offline restaurants do not take new orders.
	rr = doAuthRequest(t, router, "POST", "/orders", deliveryBody(), manager)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("create while offline: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestRestaurantStatus_StaffCannotToggle(t *testing.T) {
	staff := testClaims(uuid.New())
	router := setupRouter(handler.Lookup(newSessions()))

	rr := doAuthRequest(t, router, "PUT", "/restaurant/status", map[string]bool{"online": false}, staff)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRestaurantStatus_RequiresOnline(t *testing.T) {
	owner := testClaims(uuid.New())
	owner.Role = enum.UserRoleOwner
	router := setupRouter(handler.Lookup(newSessions()))

	rr := doAuthRequest(t, router, "PUT", "/restaurant/status", map[string]string{}, owner)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
