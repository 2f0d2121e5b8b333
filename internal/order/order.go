// Package order holds the order data model, the lifecycle state machine
// and the view filter. Everything here is pure; the session-scoped store
// lives in the service package.
package order

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/partnerdash/api/internal/enum"
	"github.com/shopspring/decimal"
)

// PrepTimeStep is the increment, in minutes, applied by the prep-time controls.
const PrepTimeStep = 5

// MaxPrepTime is the largest preparation time the database column holds.
const MaxPrepTime = math.MaxInt32

// moneyPlaces is the number of fractional digits stored for prices and totals.
const moneyPlaces = 2

// moneyLimit bounds prices and totals to what NUMERIC(12,2) holds.
var moneyLimit = decimal.New(1, 10)

// Errors returned by order validation.
var (
	ErrCustomerRequired = errors.New("customer_name is required")
	ErrInvalidType      = errors.New("invalid order type")
	ErrEmptyItems       = errors.New("items are required")
	ErrItemName         = errors.New("item name is required")
	ErrInvalidQuantity  = errors.New("quantity must be >= 1")
	ErrNegativePrice    = errors.New("price must be >= 0")
	ErrNegativeTotal    = errors.New("total must be >= 0")
	ErrNegativePrepTime = errors.New("preparation_time must be >= 0")
	ErrPrepTimeTooLarge = errors.New("preparation_time is too large")
	ErrMoneyPrecision   = errors.New("amounts allow at most 10 integer digits and 2 decimal places")
	ErrDuplicateID      = errors.New("order id already exists")
)

// Item is one line of an order.
type Item struct {
	Name     string
	Quantity int32
	Price    decimal.Decimal
}

// Order is a single customer purchase moving through preparation to dispatch.
type Order struct {
	ID           string
	CustomerName string
	Date         string
	Time         string
	Items        []Item
	// Total is supplied at creation and never recomputed from Items.
	Total   decimal.Decimal
	Type    string
	Status  string
	TableNo string
	Address string
	// PreparationTime is in minutes; only meaningful while PREPARING.
	PreparationTime *int
}

// Clone returns a deep copy so callers never alias store state.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]Item, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.PreparationTime != nil {
		v := *o.PreparationTime
		c.PreparationTime = &v
	}
	return c
}

// IsDineIn reports whether the order is served at a table.
func (o Order) IsDineIn() bool {
	return o.Type == enum.OrderTypeDineIn
}

// Prep returns the preparation time, treating unset as zero.
func (o Order) Prep() int {
	if o.PreparationTime == nil {
		return 0
	}
	return *o.PreparationTime
}

// Draft is the input for creating an order. ID and Status are assigned by the store.
type Draft struct {
	CustomerName    string
	Date            string
	Time            string
	Items           []Item
	Total           decimal.Decimal
	Type            string
	TableNo         string
	Address         string
	PreparationTime *int
}

// Validate checks the creation-boundary rules. It does not check that
// Total matches the item sum.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return ErrCustomerRequired
	}
	if !IsValidType(d.Type) {
		return ErrInvalidType
	}
	if len(d.Items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range d.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("items[%d]: %w", i, ErrItemName)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("items[%d]: %w", i, ErrNegativePrice)
		}
		if !isMoney(item.Price) {
			return fmt.Errorf("items[%d]: %w", i, ErrMoneyPrecision)
		}
	}
	if d.Total.IsNegative() {
		return ErrNegativeTotal
	}
	if !isMoney(d.Total) {
		return fmt.Errorf("total: %w", ErrMoneyPrecision)
	}
	if d.PreparationTime != nil {
		if *d.PreparationTime < 0 {
			return ErrNegativePrepTime
		}
		if *d.PreparationTime > MaxPrepTime {
			return ErrPrepTimeTooLarge
		}
	}
	return nil
}

// isMoney reports whether v is stored unchanged. Trailing zeros such as
// "1.500" are accepted.
func isMoney(v decimal.Decimal) bool {
	return v.Equal(v.Round(moneyPlaces)) && v.Abs().LessThan(moneyLimit)
}

// Build turns a validated draft into an order with the given id and initial status.
// Channel-specific fields are dropped when they do not apply to the order type.
func (d Draft) Build(id, status string) Order {
	o := Order{
		ID:           id,
		CustomerName: strings.TrimSpace(d.CustomerName),
		Date:         d.Date,
		Time:         d.Time,
		Items:        make([]Item, len(d.Items)),
		Total:        d.Total,
		Type:         d.Type,
		Status:       status,
	}
	copy(o.Items, d.Items)
	switch d.Type {
	case enum.OrderTypeDineIn:
		o.TableNo = d.TableNo
	case enum.OrderTypeDelivery:
		o.Address = d.Address
	}
	if d.PreparationTime != nil {
		v := *d.PreparationTime
		o.PreparationTime = &v
	}
	return o
}

// IsValidType reports whether s is a known order type.
func IsValidType(s string) bool {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeDelivery, enum.OrderTypeParcel:
		return true
	}
	return false
}

// IsActiveStatus reports whether s is a status an order can hold while in the working set.
func IsActiveStatus(s string) bool {
	switch s {
	case enum.OrderStatusIncoming, enum.OrderStatusPreparing, enum.OrderStatusReady:
		return true
	}
	return false
}

// IsValidStatus reports whether s is any known status.
func IsValidStatus(s string) bool {
	return IsActiveStatus(s) || s == enum.OrderStatusDispatched || s == enum.OrderStatusRejected
}
