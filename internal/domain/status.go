package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/restaurantia/api/internal/enum"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft     Status = enum.OrderStatusDraft
	StatusPending   Status = enum.OrderStatusPending
	StatusPreparing Status = enum.OrderStatusPreparing
	StatusReady     Status = enum.OrderStatusReady
	StatusDelivered Status = enum.OrderStatusDelivered
	StatusPaid      Status = enum.OrderStatusPaid
)

var (
	ErrInvalidStatus     = errors.New("invalid estado")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ParseStatus validates a status coming from a client. The draft status is
// rejected because it never reaches the ledger.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == enum.OrderStatusPreparingES {
		return StatusPreparing, nil
	}
	switch st := Status(s); st {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusPaid:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Active reports whether an order in this status keeps its table occupied.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusPreparing || s == StatusReady
}

// ActiveStatuses lists the statuses that occupy a table, for SQL filters.
func ActiveStatuses() []string {
	return []string{string(StatusPending), string(StatusPreparing), string(StatusReady)}
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPreparing},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusDelivered, StatusPaid},
	StatusDelivered: {StatusPaid},
}

// ValidateTransition returns ErrInvalidTransition when next cannot follow current.
func ValidateTransition(current, next Status) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}
