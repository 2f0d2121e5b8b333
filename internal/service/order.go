package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/partnerdash/api/internal/enum"
	"github.com/partnerdash/api/internal/notify"
	"github.com/partnerdash/api/internal/order"
)

const maxOrderNumberRetries = 3

// Errors returned by the order store.
var (
	ErrRestaurantOffline = errors.New("restaurant is offline")
	ErrBackend           = errors.New("backend rejected the change")
)

// Backend is the remote boundary the store persists through before it
// changes local state. Satisfied by *database.Repository.
type Backend interface {
	NextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int64, error)
	CreateOrder(ctx context.Context, restaurantID uuid.UUID, o order.Order) error
	UpdateOrder(ctx context.Context, restaurantID uuid.UUID, o order.Order) error
	ArchiveOrder(ctx context.Context, restaurantID uuid.UUID, orderID, status string) error
	ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]order.Order, error)
	GetOnline(ctx context.Context, restaurantID uuid.UUID) (bool, error)
	SetOnline(ctx context.Context, restaurantID uuid.UUID, online bool) error
}

// Session identifies whose orders a store holds.
type Session struct {
	RestaurantID uuid.UUID
}

// Options configures stores. Zero values are usable: no backend, no sinks.
type Options struct {
	Backend  Backend
	Notifier notify.Notifier
	Logger   *slog.Logger
	// AutoApprove starts new orders in PREPARING instead of INCOMING.
	AutoApprove bool
	Now         func() time.Time
}

// Result reports what a transition did.
type Result struct {
	Order order.Order
	// Applied is false when the id was not in the collection.
	Applied bool
	Removed bool
}

// OrderStore owns the active orders and view filters of one restaurant session.
// All methods are safe for concurrent use; mutations are serialised.
type OrderStore struct {
	mu sync.Mutex

	session     Session
	backend     Backend
	notifier    notify.Notifier
	logger      *slog.Logger
	autoApprove bool
	now         func() time.Time

	orders    []order.Order
	activeTab string
	search    string
	online    bool
	seq       int64
	// lastEvent is the Seq of the most recent event, taken under mu.
	lastEvent uint64
}

// NewOrderStore creates an empty, online store for the session.
func NewOrderStore(session Session, opts Options) *OrderStore {
	s := &OrderStore{
		session:     session,
		backend:     opts.Backend,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		autoApprove: opts.AutoApprove,
		now:         opts.Now,
		activeTab:   enum.TabAllOrders,
		online:      true,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Load replaces the collection with already-persisted orders. No events are emitted.
func (s *OrderStore) Load(orders []order.Order, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if order.IsActiveStatus(o.Status) {
			s.orders = append(s.orders, o.Clone())
		}
	}
	s.online = online
}

// RestaurantID returns the session's restaurant.
func (s *OrderStore) RestaurantID() uuid.UUID {
	return s.session.RestaurantID
}

// AddOrder validates the draft, assigns an id and the initial status, and
// appends it to the collection.
func (s *OrderStore) AddOrder(ctx context.Context, d order.Draft) (order.Order, error) {
	if err := d.Validate(); err != nil {
		return order.Order{}, err
	}

	created, seq, err := s.addOrder(ctx, d)
	if err != nil {
		return order.Order{}, err
	}

	s.emit(ctx, notify.Event{
		Type:    enum.EventOrderCreated,
		OrderID: created.ID,
		Message: "New order received",
		Order:   &created,
		Seq:     seq,
	})
	return created.Clone(), nil
}

func (s *OrderStore) addOrder(ctx context.Context, d order.Draft) (order.Order, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.online {
		return order.Order{}, 0, ErrRestaurantOffline
	}

	status := enum.OrderStatusIncoming
	if s.autoApprove {
		status = enum.OrderStatusPreparing
	}

	now := s.now()
	if d.Date == "" {
		d.Date = now.Format("2006-01-02")
	}
	if d.Time == "" {
		d.Time = now.Format("3:04 PM")
	}

	// Retry loop: a concurrent writer on the backend may take the same number.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		id, err := s.nextID(ctx)
		if err != nil {
			return order.Order{}, 0, fmt.Errorf("%w: next order number: %w", ErrBackend, err)
		}
		o := d.Build(id, status)

		if s.backend != nil {
			if err := s.backend.CreateOrder(ctx, s.session.RestaurantID, o); err != nil {
				if errors.Is(err, order.ErrDuplicateID) {
					lastErr = err
					continue
				}
				return order.Order{}, 0, fmt.Errorf("%w: create order: %w", ErrBackend, err)
			}
		} else if s.indexOf(id) >= 0 {
			lastErr = order.ErrDuplicateID
			continue
		}

		s.orders = append(s.orders, o)
		return o.Clone(), s.nextEvent(), nil
	}
	return order.Order{}, 0, fmt.Errorf("%w: %w", ErrBackend, lastErr)
}

func (s *OrderStore) nextID(ctx context.Context) (string, error) {
	var n int64
	if s.backend != nil {
		v, err := s.backend.NextOrderNumber(ctx, s.session.RestaurantID)
		if err != nil {
			return "", err
		}
		n = v
	} else {
		s.seq++
		n = s.seq
	}
	return fmt.Sprintf("ORD%06d", n), nil
}

// Approve moves an INCOMING order to PREPARING.
func (s *OrderStore) Approve(ctx context.Context, id string) (Result, error) {
	return s.apply(ctx, id, fixed(order.ActionApprove))
}

// Reject removes an INCOMING order.
func (s *OrderStore) Reject(ctx context.Context, id string) (Result, error) {
	return s.apply(ctx, id, fixed(order.ActionReject))
}

// MarkReady moves a PREPARING order to READY.
func (s *OrderStore) MarkReady(ctx context.Context, id string) (Result, error) {
	return s.apply(ctx, id, fixed(order.ActionMarkReady))
}

// Dispatch moves an order to DISPATCHED and removes it from the collection.
func (s *OrderStore) Dispatch(ctx context.Context, id string) (Result, error) {
	return s.apply(ctx, id, fixed(order.ActionDispatch))
}

// AdjustPrepTime moves the preparation time of a PREPARING order by one step.
func (s *OrderStore) AdjustPrepTime(ctx context.Context, id string, increment bool) (Result, error) {
	a := order.ActionPrepTimeDown
	if increment {
		a = order.ActionPrepTimeUp
	}
	return s.apply(ctx, id, fixed(a))
}

// SetStatus applies the single edge that moves the order to status.
func (s *OrderStore) SetStatus(ctx context.Context, id, status string) (Result, error) {
	return s.apply(ctx, id, func(o order.Order) (order.Action, error) {
		return order.ActionFor(o, status)
	})
}

func fixed(a order.Action) func(order.Order) (order.Action, error) {
	return func(order.Order) (order.Action, error) { return a, nil }
}

func (s *OrderStore) apply(ctx context.Context, id string, choose func(order.Order) (order.Action, error)) (Result, error) {
	res, tr, seq, err := s.applyLocked(ctx, id, choose)
	if err != nil || !res.Applied {
		return res, err
	}

	s.emit(ctx, notify.Event{
		Type:    tr.Event,
		OrderID: id,
		Message: tr.Message,
		Order:   &tr.Order,
		Seq:     seq,
	})
	return res, nil
}

func (s *OrderStore) applyLocked(ctx context.Context, id string, choose func(order.Order) (order.Action, error)) (Result, order.Transition, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Result{}, order.Transition{}, 0, nil
	}
	current := s.orders[idx]

	action, err := choose(current)
	if err != nil {
		return Result{}, order.Transition{}, 0, err
	}
	tr, err := order.Apply(current, action)
	if err != nil {
		return Result{}, order.Transition{}, 0, err
	}

	if s.backend != nil {
		if tr.Removed {
			err = s.backend.ArchiveOrder(ctx, s.session.RestaurantID, id, tr.Order.Status)
		} else {
			err = s.backend.UpdateOrder(ctx, s.session.RestaurantID, tr.Order)
		}
		if err != nil {
			return Result{}, order.Transition{}, 0, fmt.Errorf("%w: %s %s: %w", ErrBackend, action, id, err)
		}
	}

	if tr.Removed {
		s.orders = slices.Delete(s.orders, idx, idx+1)
	} else {
		s.orders[idx] = tr.Order
	}

	return Result{Order: tr.Order.Clone(), Applied: true, Removed: tr.Removed}, tr, s.nextEvent(), nil
}

// nextEvent numbers the mutation just committed. Caller holds mu.
func (s *OrderStore) nextEvent() uint64 {
	s.lastEvent++
	return s.lastEvent
}

func (s *OrderStore) indexOf(id string) int {
	return slices.IndexFunc(s.orders, func(o order.Order) bool { return o.ID == id })
}

// SetActiveTab changes the stored tab filter.
func (s *OrderStore) SetActiveTab(tab string) error {
	t, err := order.ParseTab(tab)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.activeTab = t
	s.mu.Unlock()
	return nil
}

// SetSearchQuery changes the stored search filter.
func (s *OrderStore) SetSearchQuery(q string) {
	s.mu.Lock()
	s.search = q
	s.mu.Unlock()
}

// View returns the stored tab and search query.
func (s *OrderStore) View() (tab, search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab, s.search
}

// Visible returns the orders matching the stored filters.
func (s *OrderStore) Visible() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(order.Visible(s.orders, s.activeTab, s.search))
}

// VisibleFor returns the orders matching the given filters without storing them.
func (s *OrderStore) VisibleFor(tab, search string) []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(order.Visible(s.orders, tab, search))
}

// Orders returns a snapshot of the whole collection.
func (s *OrderStore) Orders() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.orders)
}

// Len returns the number of orders in the collection.
func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Get returns the order with the given id.
func (s *OrderStore) Get(id string) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return order.Order{}, false
	}
	return s.orders[idx].Clone(), true
}

// Online reports whether the restaurant accepts new orders.
func (s *OrderStore) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline toggles whether the restaurant accepts new orders.
func (s *OrderStore) SetOnline(ctx context.Context, online bool) error {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return nil
	}
	if s.backend != nil {
		if err := s.backend.SetOnline(ctx, s.session.RestaurantID, online); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: set online: %w", ErrBackend, err)
		}
	}
	s.online = online
	seq := s.nextEvent()
	s.mu.Unlock()

	msg := "Restaurant is offline"
	if online {
		msg = "Restaurant is online"
	}
	s.emit(ctx, notify.Event{Type: enum.EventRestaurantOnline, Message: msg, Online: &online, Seq: seq})
	return nil
}

// emit never fails the caller; sink errors are logged.
func (s *OrderStore) emit(ctx context.Context, e notify.Event) {
	e.RestaurantID = s.session.RestaurantID
	e.At = s.now()
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("event", e.Type),
			slog.String("order_id", e.OrderID),
			slog.String("error", err.Error()),
		)
	}
}

func cloneAll(orders []order.Order) []order.Order {
	out := make([]order.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
