// Package notify carries the user-facing notifications emitted by order
// transitions to every configured sink.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/partnerdash/api/internal/order"
)

// Event is one user-facing notification.
type Event struct {
	Type         string
	RestaurantID uuid.UUID
	OrderID      string
	Message      string
	// Order is the order after the transition; nil for restaurant-level events.
	Order *order.Order
	// Online is set for restaurant.online_changed events.
	Online *bool
	// Seq increases by one per mutation within a restaurant session.
	// Sinks may deliver out of order; consumers sort on it.
	Seq uint64
	At  time.Time
}

// Notifier delivers events. Implementations must not block for long; callers
// log and discard the returned error.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, e Event) error

func (f Func) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi fans an event out to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes every event through a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, e Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, e.Message,
		slog.String("event", e.Type),
		slog.String("restaurant_id", e.RestaurantID.String()),
		slog.String("order_id", e.OrderID),
	)
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Wire is the JSON body published for an event on the websocket feed and
// the event log.
type Wire struct {
	Type         string         `json:"type"`
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	OrderID      string         `json:"order_id,omitempty"`
	Message      string         `json:"message"`
	Order        *order.Payload `json:"order,omitempty"`
	Online       *bool          `json:"online,omitempty"`
	Seq          uint64         `json:"seq"`
	At           time.Time      `json:"at"`
}

// Wire converts e for publishing.
func (e Event) Wire() Wire {
	w := Wire{
		Type:         e.Type,
		RestaurantID: e.RestaurantID,
		OrderID:      e.OrderID,
		Message:      e.Message,
		Online:       e.Online,
		Seq:          e.Seq,
		At:           e.At,
	}
	if e.Order != nil {
		p := order.NewPayload(*e.Order)
		w.Order = &p
	}
	return w
}
