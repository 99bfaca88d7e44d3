package order

import (
	"context"
	"slices"
)

// Service implements the order use cases on top of a Repository.
type Service struct {
	repo Repository
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all orders in creation order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

// Create validates in and stores a pending order whose total is fixed at
// the sum of its item prices. Nothing is stored when validation fails.
func (s *Service) Create(ctx context.Context, in NewOrder) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}
	return s.repo.Create(ctx, Order{
		CustomerName: in.CustomerName,
		Items:        slices.Clone(in.Items),
		Status:       StatusPending,
		Total:        in.Total(),
	})
}

// Get returns the order with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int) (Order, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus sets the status of order id. The status value is checked
// before the order is looked up, so an unknown status always wins over
// an unknown id.
func (s *Service) UpdateStatus(ctx context.Context, id int, status string) (Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Order{}, err
	}
	return s.repo.UpdateStatus(ctx, id, st)
}

// Summary counts the stored orders and sums their totals.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{TotalOrders: len(orders)}
	for _, o := range orders {
		sum.TotalValue += o.Total
	}
	return sum, nil
}
