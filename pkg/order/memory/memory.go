// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"tableorders/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
// A single RWMutex guards the whole map; nothing slow runs under it.
type Repository struct {
	mu     sync.RWMutex
	tables map[uint32][]order.Order
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{tables: make(map[uint32][]order.Order)}
}

// List returns a copy of the orders placed at the table.
func (r *Repository) List(ctx context.Context, tableID uint32) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := r.tables[tableID]
	out := make([]order.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// Get retrieves an order by table and ID.
func (r *Repository) Get(ctx context.Context, tableID uint32, id uuid.UUID) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.tables[tableID] {
		if o.ID == id {
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

// Append adds the batch to the end of the table's orders in one step.
func (r *Repository) Append(ctx context.Context, tableID uint32, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[tableID] = append(r.tables[tableID], orders...)
	return nil
}

// Delete removes an order by table and ID.
func (r *Repository) Delete(ctx context.Context, tableID uint32, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := r.tables[tableID]
	for i, o := range orders {
		if o.ID != id {
			continue
		}
		if len(orders) == 1 {
			delete(r.tables, tableID)
			return nil
		}
		r.tables[tableID] = slices.Delete(orders, i, i+1)
		return nil
	}
	return order.ErrNotFound
}
