// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"slices"
	"sync"

	"orderdesk/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
// IDs start at 1 and are never reused.
type Repository struct {
	mu     sync.RWMutex
	orders map[int]order.Order
	ids    []int
	nextID int
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		orders: make(map[int]order.Order),
		nextID: 1,
	}
}

// Create assigns the next ID to o and stores it.
func (r *Repository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	o.Items = slices.Clone(o.Items)
	r.orders[o.ID] = o
	r.ids = append(r.ids, o.ID)
	r.nextID++
	return clone(o), nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id int) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return clone(o), nil
}

// List returns all orders in insertion order.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, clone(r.orders[id]))
	}
	return out, nil
}

// UpdateStatus replaces the status of an existing order.
func (r *Repository) UpdateStatus(ctx context.Context, id int, status order.Status) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return clone(o), nil
}

func clone(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
