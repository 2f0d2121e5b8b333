package order

import (
	"errors"
	"strings"

	"github.com/partnerdash/api/internal/enum"
)

// ErrInvalidTab is returned by ParseTab for unknown tabs.
var ErrInvalidTab = errors.New("invalid tab")

// ParseTab validates a view tab. Empty input selects the aggregate tab.
func ParseTab(s string) (string, error) {
	if s == "" {
		return enum.TabAllOrders, nil
	}
	if s == enum.TabAllOrders || IsActiveStatus(s) {
		return s, nil
	}
	return "", ErrInvalidTab
}

// Visible returns the orders shown under tab for the search query, in the
// input's relative order. The input slice is not modified.
func Visible(orders []Order, tab, query string) []Order {
	q := strings.ToLower(query)
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if tab != enum.TabAllOrders && o.Status != tab {
			continue
		}
		if q != "" && !matches(o, q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// matches expects q already lowercased.
func matches(o Order, q string) bool {
	if strings.Contains(strings.ToLower(o.ID), q) ||
		strings.Contains(strings.ToLower(o.CustomerName), q) {
		return true
	}
	for _, item := range o.Items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			return true
		}
	}
	return false
}
