package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"tableorders/pkg/logger"
	"tableorders/pkg/notify"
)

// Cooking time bounds in minutes, inclusive.
const (
	MinCookingTime = 5
	MaxCookingTime = 15
)

// Service validates requests, manufactures orders and stores them in a
// Repository. It is the only writer of the repository.
type Service struct {
	repo   Repository
	tables TableRange
	menu   []MenuItem
	events notify.Publisher
	log    *logger.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends an event after every successful create and delete.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over repo. The menu slice is shared, not
// copied, and must not be modified afterwards.
func NewService(repo Repository, tables TableRange, menu []MenuItem, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		tables: tables,
		menu:   menu,
		events: notify.Nop{},
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TableRange returns the configured range of valid tables.
func (s *Service) TableRange() TableRange { return s.tables }

// Menu returns the menu catalog.
func (s *Service) Menu() []MenuItem { return s.menu }

// ListForTable returns the table's orders in placement order. Unknown or out
// of range tables yield an empty list.
func (s *Service) ListForTable(ctx context.Context, tableID uint32) ([]Order, error) {
	return s.repo.List(ctx, tableID)
}

// GetOrder returns one order of a table.
func (s *Service) GetOrder(ctx context.Context, tableID uint32, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, tableID, id)
}

// CreateOrders places one order per menu item at the table and returns them
// in the same order as items.
func (s *Service) CreateOrders(ctx context.Context, tableID uint32, items []MenuItem) ([]Order, error) {
	if !s.tables.Contains(tableID) {
		return nil, fmt.Errorf("table %d outside [%d, %d]: %w", tableID, s.tables.Start, s.tables.End, ErrInvalidTable)
	}

	orders := make([]Order, 0, len(items))
	if len(items) == 0 {
		return orders, nil
	}

	now := s.now()
	for _, item := range items {
		orders = append(orders, Order{
			ID:                 uuid.New(),
			TableID:            tableID,
			Menu:               item,
			CookingTimeMinutes: randomCookingTime(),
			CreatedAt:          now,
		})
	}

	if err := s.repo.Append(ctx, tableID, orders); err != nil {
		return nil, fmt.Errorf("append orders: %w", err)
	}
	s.log.Info(ctx, "orders created", "table_id", tableID, "count", len(orders))

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	s.publish(ctx, notify.Event{Type: notify.OrdersCreated, TableID: tableID, OrderIDs: ids, At: now})

	return orders, nil
}

// DeleteOrder removes one order of a table.
func (s *Service) DeleteOrder(ctx context.Context, tableID uint32, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tableID, id); err != nil {
		return err
	}
	s.log.Info(ctx, "order deleted", "table_id", tableID, "order_id", id)
	s.publish(ctx, notify.Event{Type: notify.OrderDeleted, TableID: tableID, OrderIDs: []uuid.UUID{id}, At: s.now()})
	return nil
}

func (s *Service) publish(ctx context.Context, e notify.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn(ctx, "publish order event", "type", e.Type, "table_id", e.TableID, "error", err)
	}
}

func randomCookingTime() int {
	return MinCookingTime + rand.IntN(MaxCookingTime-MinCookingTime+1)
}
