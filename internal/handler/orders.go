package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/partnerdash/api/internal/order"
	"github.com/partnerdash/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderSession is the part of *service.OrderStore the handlers use.
type OrderSession interface {
	AddOrder(ctx context.Context, d order.Draft) (order.Order, error)
	Approve(ctx context.Context, id string) (service.Result, error)
	Reject(ctx context.Context, id string) (service.Result, error)
	MarkReady(ctx context.Context, id string) (service.Result, error)
	Dispatch(ctx context.Context, id string) (service.Result, error)
	AdjustPrepTime(ctx context.Context, id string, increment bool) (service.Result, error)
	SetStatus(ctx context.Context, id, status string) (service.Result, error)
	SetActiveTab(tab string) error
	SetSearchQuery(q string)
	View() (tab, search string)
	Visible() []order.Order
	VisibleFor(tab, search string) []order.Order
	Get(id string) (order.Order, bool)
	Online() bool
	SetOnline(ctx context.Context, online bool) error
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	sessions SessionLookup
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(sessions SessionLookup) *OrderHandler {
	return &OrderHandler{sessions: sessions}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/view", h.SetView)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/approve", h.transition((OrderSession).Approve))
	r.Post("/{id}/reject", h.transition((OrderSession).Reject))
	r.Post("/{id}/ready", h.transition((OrderSession).MarkReady))
	r.Post("/{id}/dispatch", h.transition((OrderSession).Dispatch))
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/prep-time", h.AdjustPrepTime)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerName    string                   `json:"customer_name"`
	Date            string                   `json:"date"`
	Time            string                   `json:"time"`
	Type            string                   `json:"type"`
	TableNo         string                   `json:"table_no"`
	Address         string                   `json:"address"`
	Items           []createOrderItemRequest `json:"items"`
	Total           string                   `json:"total"`
	PreparationTime *int                     `json:"preparation_time"`
}

type createOrderItemRequest struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
}

type orderListResponse struct {
	Orders []order.Payload `json:"orders"`
	Tab    string          `json:"tab"`
	Search string          `json:"search"`
}

type transitionResponse struct {
	Order   order.Payload `json:"order"`
	Removed bool          `json:"removed"`
}

type viewRequest struct {
	Tab    *string `json:"tab"`
	Search *string `json:"search"`
}

type viewResponse struct {
	Tab    string `json:"tab"`
	Search string `json:"search"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type prepTimeRequest struct {
	Increment *bool `json:"increment"`
}

// --- Handlers ---

// List handles GET /orders. Query parameters tab and q override the
// session's stored view for this request only.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	tab, search := s.View()
	query := r.URL.Query()
	if !query.Has("tab") && !query.Has("q") {
		writeJSON(w, http.StatusOK, toListResponse(s.Visible(), tab, search))
		return
	}

	if query.Has("tab") {
		t, err := order.ParseTab(query.Get("tab"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		tab = t
	}
	if query.Has("q") {
		search = query.Get("q")
	}
	writeJSON(w, http.StatusOK, toListResponse(s.VisibleFor(tab, search), tab, search))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	o, ok := s.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, order.NewPayload(o))
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid total"})
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "invalid price"),
			})
			return
		}
		items[i] = order.Item{Name: item.Name, Quantity: item.Quantity, Price: price}
	}

	created, err := s.AddOrder(r.Context(), order.Draft{
		CustomerName:    req.CustomerName,
		Date:            req.Date,
		Time:            req.Time,
		Items:           items,
		Total:           total,
		Type:            req.Type,
		TableNo:         req.TableNo,
		Address:         req.Address,
		PreparationTime: req.PreparationTime,
	})
	if err != nil {
		writeError(w, r, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, order.NewPayload(created))
}

// SetView handles PUT /orders/view. Omitted fields keep their value.
func (h *OrderHandler) SetView(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Tab != nil {
		if err := s.SetActiveTab(*req.Tab); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	if req.Search != nil {
		s.SetSearchQuery(*req.Search)
	}

	tab, search := s.View()
	writeJSON(w, http.StatusOK, viewResponse{Tab: tab, Search: search})
}

// transition builds the handler for one of the fixed lifecycle actions.
func (h *OrderHandler) transition(apply func(OrderSession, context.Context, string) (service.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session(w, r, h.sessions)
		if s == nil {
			return
		}
		res, err := apply(s, r.Context(), chi.URLParam(r, "id"))
		writeResult(w, r, res, err)
	}
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !order.IsValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	res, err := s.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	writeResult(w, r, res, err)
}

// AdjustPrepTime handles PATCH /orders/{id}/prep-time.
func (h *OrderHandler) AdjustPrepTime(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	if s == nil {
		return
	}

	var req prepTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Increment == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "increment is required"})
		return
	}

	res, err := s.AdjustPrepTime(r.Context(), chi.URLParam(r, "id"), *req.Increment)
	writeResult(w, r, res, err)
}

// --- Helpers ---

// writeResult reports a transition. The store ignores unknown ids; over
// HTTP that is a 404.
func writeResult(w http.ResponseWriter, r *http.Request, res service.Result, err error) {
	if err != nil {
		writeError(w, r, "order transition", err)
		return
	}
	if !res.Applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Order:   order.NewPayload(res.Order),
		Removed: res.Removed,
	})
}

func toListResponse(orders []order.Order, tab, search string) orderListResponse {
	resp := orderListResponse{
		Orders: make([]order.Payload, len(orders)),
		Tab:    tab,
		Search: search,
	}
	for i, o := range orders {
		resp.Orders[i] = order.NewPayload(o)
	}
	return resp
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}
