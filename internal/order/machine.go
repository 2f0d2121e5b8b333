package order

import (
	"errors"
	"fmt"

	"github.com/partnerdash/api/internal/enum"
)

// Action is a user-requested lifecycle step.
type Action string

const (
	ActionApprove      Action = "APPROVE"
	ActionReject       Action = "REJECT"
	ActionMarkReady    Action = "MARK_READY"
	ActionDispatch     Action = "DISPATCH"
	ActionPrepTimeUp   Action = "PREP_TIME_UP"
	ActionPrepTimeDown Action = "PREP_TIME_DOWN"
)

// ErrInvalidTransition is returned when an action is not legal for the order's state.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition is the outcome of applying one action.
type Transition struct {
	// Order is the order after the action. For removals it carries the
	// terminal status (DISPATCHED or REJECTED).
	Order Order
	// Removed is true when the order leaves the active set.
	Removed bool
	Event   string
	Message string
}

// Apply computes the result of action a on o without mutating o.
func Apply(o Order, a Action) (Transition, error) {
	next := o.Clone()

	switch a {
	case ActionApprove:
		if o.Status != enum.OrderStatusIncoming {
			return Transition{}, invalid(o, a)
		}
		next.Status = enum.OrderStatusPreparing
		return Transition{Order: next, Event: enum.EventOrderApproved, Message: "Order approved"}, nil

	case ActionReject:
		if o.Status != enum.OrderStatusIncoming {
			return Transition{}, invalid(o, a)
		}
		next.Status = enum.OrderStatusRejected
		return Transition{Order: next, Removed: true, Event: enum.EventOrderRejected, Message: "Order rejected"}, nil

	case ActionMarkReady:
		// Dine-in orders are served at the table and never wait at the Ready gate.
		if o.Status != enum.OrderStatusPreparing || o.IsDineIn() {
			return Transition{}, invalid(o, a)
		}
		next.Status = enum.OrderStatusReady
		return Transition{Order: next, Event: enum.EventOrderReady, Message: "Order updated to Ready"}, nil

	case ActionDispatch:
		if !canDispatch(o) {
			return Transition{}, invalid(o, a)
		}
		next.Status = enum.OrderStatusDispatched
		return Transition{Order: next, Removed: true, Event: enum.EventOrderDispatched, Message: "Order dispatched"}, nil

	case ActionPrepTimeUp, ActionPrepTimeDown:
		if o.Status != enum.OrderStatusPreparing {
			return Transition{}, invalid(o, a)
		}
		step := PrepTimeStep
		if a == ActionPrepTimeDown {
			step = -PrepTimeStep
		}
		v := min(MaxPrepTime, max(0, o.Prep()+step))
		next.PreparationTime = &v
		return Transition{Order: next, Event: enum.EventOrderPrepTimeChanged, Message: "Preparation time updated"}, nil
	}

	return Transition{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a)
}

func canDispatch(o Order) bool {
	if o.IsDineIn() {
		return o.Status == enum.OrderStatusIncoming || o.Status == enum.OrderStatusPreparing
	}
	return o.Status == enum.OrderStatusReady
}

// ActionFor maps a requested target status to the single edge that reaches it
// from o's current status.
func ActionFor(o Order, target string) (Action, error) {
	switch target {
	case enum.OrderStatusPreparing:
		if o.Status == enum.OrderStatusIncoming {
			return ActionApprove, nil
		}
	case enum.OrderStatusReady:
		if o.Status == enum.OrderStatusPreparing && !o.IsDineIn() {
			return ActionMarkReady, nil
		}
	case enum.OrderStatusDispatched:
		if canDispatch(o) {
			return ActionDispatch, nil
		}
	case enum.OrderStatusRejected:
		if o.Status == enum.OrderStatusIncoming {
			return ActionReject, nil
		}
	}
	return "", fmt.Errorf("%w: cannot move %s order from %s to %s", ErrInvalidTransition, o.Type, o.Status, target)
}

func invalid(o Order, a Action) error {
	return fmt.Errorf("%w: cannot %s a %s order in %s", ErrInvalidTransition, a, o.Type, o.Status)
}
