package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses returns the allowed status values in their canonical order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// ParseStatus converts s into a Status. Unknown values yield an *InvalidStatusError.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &InvalidStatusError{Value: s}
}

// Item is a single priced line of an order.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Order represents a customer order in the system.
type Order struct {
	ID           int     `json:"id"`
	CustomerName string  `json:"customer_name"`
	Items        []Item  `json:"items"`
	Status       Status  `json:"status"`
	Total        float64 `json:"total"`
}

// NewOrder is the caller-supplied input for creating an order.
type NewOrder struct {
	CustomerName string
	Items        []Item
}

// Validate checks every creation rule and reports all violations at once.
// It returns nil or a ValidationErrors value.
func (n NewOrder) Validate() error {
	var verrs ValidationErrors
	if strings.TrimSpace(n.CustomerName) == "" {
		verrs = append(verrs, FieldError{Field: "customer_name", Message: "customer name cannot be empty"})
	}
	if len(n.Items) == 0 {
		verrs = append(verrs, FieldError{Field: "items", Message: "order must contain at least one item"})
	}
	for i, it := range n.Items {
		if it.Price <= 0 {
			verrs = append(verrs, FieldError{
				Field:   fmt.Sprintf("items[%d].price", i),
				Message: "price must be a positive number",
			})
		}
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// Total sums the item prices.
func (n NewOrder) Total() float64 {
	var total float64
	for _, it := range n.Items {
		total += it.Price
	}
	return total
}

// Summary aggregates every stored order.
type Summary struct {
	TotalOrders int     `json:"total_orders"`
	TotalValue  float64 `json:"total_value"`
}

// Repository defines behavior for storing orders.
// Create assigns the order ID; UpdateStatus changes only the status field.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id int) (Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int, status Status) (Order, error)
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidStatus indicates a status outside the allowed set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrValidation indicates order input that breaks a creation rule.
	ErrValidation = errors.New("validation failed")
)

// InvalidStatusError carries the rejected status value.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("%s %q; allowed values: %v", ErrInvalidStatus, e.Value, Statuses())
}

func (e *InvalidStatusError) Unwrap() error {
	return ErrInvalidStatus
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the list of field errors for a rejected input.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}
