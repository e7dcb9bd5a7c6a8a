// Package workload drives random, concurrent traffic against the order
// service.
//
// Every tick the generator picks MaxConcurrent distinct tables and starts one
// unit per table. A unit lists the table's orders and then issues at most one
// follow-up call:
//
//   - empty table: create 1 to 3 random menu items
//   - otherwise, uniformly one of: create 1 to 2 items, delete a random
//     listed order, or fetch a random listed order by id
//
// Units of a tick run concurrently and are not awaited before the next tick,
// so slow units from one tick may overlap the next. A failed call ends its unit
// and nothing else.
package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tableorders/pkg/logger"
	"tableorders/pkg/order"
)

// Client is the view of the order service the generator needs.
type Client interface {
	ListOrders(ctx context.Context, tableID uint32) ([]order.Order, error)
	GetOrder(ctx context.Context, tableID uint32, id uuid.UUID) (order.Order, error)
	CreateOrders(ctx context.Context, tableID uint32, items []order.MenuItem) ([]order.Order, error)
	DeleteOrder(ctx context.Context, tableID uint32, id uuid.UUID) error
}

// Config controls the tick cadence and fan-out.
type Config struct {
	Interval      time.Duration
	MaxConcurrent int
	// OpTimeout bounds every single call. Zero leaves it to the client.
	OpTimeout time.Duration
	Tables    order.TableRange
}

// Action is the follow-up a unit takes on a table that has orders.
type Action int

// Follow-up actions, chosen uniformly.
const (
	ActionCreate Action = iota
	ActionDelete
	ActionGet
	numActions
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionDelete:
		return "delete"
	case ActionGet:
		return "get"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Operation names used in logs and metrics.
const (
	OpList   = "list"
	OpCreate = "create"
	OpDelete = "delete"
	OpGet    = "get"
)

// Item counts per create, inclusive.
const (
	emptyTableMaxItems = 3
	busyTableMaxItems  = 2
)

// Generator issues the traffic.
type Generator struct {
	client  Client
	menu    []order.MenuItem
	cfg     Config
	log     *logger.Logger
	metrics *Metrics
	intN    func(n int) int

	inflight sync.WaitGroup
}

// Option configures a Generator.
type Option func(*Generator)

// WithMetrics records per-operation counters and latencies.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithRand replaces the random source. intN must return a value in [0, n)
// and be safe for concurrent use.
func WithRand(intN func(n int) int) Option {
	return func(g *Generator) { g.intN = intN }
}

// New validates cfg and returns a Generator. MaxConcurrent may not exceed the
// number of tables, otherwise picking distinct tables could never finish.
func New(client Client, menu []order.MenuItem, cfg Config, log *logger.Logger, opts ...Option) (*Generator, error) {
	switch {
	case cfg.Interval <= 0:
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	case cfg.MaxConcurrent < 1:
		return nil, fmt.Errorf("max concurrent must be at least 1, got %d", cfg.MaxConcurrent)
	case cfg.Tables.Start == 0 || cfg.Tables.Start > cfg.Tables.End:
		return nil, fmt.Errorf("invalid table range [%d, %d]", cfg.Tables.Start, cfg.Tables.End)
	case cfg.MaxConcurrent > cfg.Tables.Size():
		return nil, fmt.Errorf("max concurrent %d exceeds the %d available tables", cfg.MaxConcurrent, cfg.Tables.Size())
	case len(menu) == 0:
		return nil, errors.New("menu is empty")
	}

	g := &Generator{
		client: client,
		menu:   menu,
		cfg:    cfg,
		log:    log,
		intN:   rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Run ticks until ctx is cancelled, then waits for in-flight units.
func (g *Generator) Run(ctx context.Context) error {
	g.log.Info(ctx, "workload started",
		"interval", g.cfg.Interval.String(),
		"max_concurrent", g.cfg.MaxConcurrent,
		"tables_start", g.cfg.Tables.Start,
		"tables_end", g.cfg.Tables.End,
	)

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		g.Tick(ctx)

		select {
		case <-ctx.Done():
			g.inflight.Wait()
			g.log.Info(context.Background(), "workload stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick starts one unit per picked table and returns without waiting for them.
// The returned group can be waited on to observe completion.
func (g *Generator) Tick(ctx context.Context) *errgroup.Group {
	tables := g.pickTables()
	if g.metrics != nil {
		g.metrics.ticks.Inc()
	}

	eg := new(errgroup.Group)
	for _, tableID := range tables {
		eg.Go(func() error {
			g.runUnit(ctx, tableID)
			return nil
		})
	}
	g.inflight.Go(func() { _ = eg.Wait() })
	return eg
}

// pickTables samples MaxConcurrent distinct tables uniformly, rejecting
// duplicates.
func (g *Generator) pickTables() []uint32 {
	n := g.cfg.MaxConcurrent
	size := g.cfg.Tables.Size()
	seen := make(map[uint32]struct{}, n)
	tables := make([]uint32, 0, n)
	for len(tables) < n {
		id := g.cfg.Tables.Start + uint32(g.intN(size))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		tables = append(tables, id)
	}
	return tables
}

func (g *Generator) runUnit(ctx context.Context, tableID uint32) {
	var orders []order.Order
	err := g.call(ctx, OpList, tableID, func(ctx context.Context) (err error) {
		orders, err = g.client.ListOrders(ctx, tableID)
		return err
	})
	if err != nil {
		return
	}

	if len(orders) == 0 {
		g.create(ctx, tableID, 1+g.intN(emptyTableMaxItems))
		return
	}

	switch Action(g.intN(int(numActions))) {
	case ActionCreate:
		g.create(ctx, tableID, 1+g.intN(busyTableMaxItems))
	case ActionDelete:
		target := orders[g.intN(len(orders))]
		g.call(ctx, OpDelete, tableID, func(ctx context.Context) error {
			return g.client.DeleteOrder(ctx, tableID, target.ID)
		})
	case ActionGet:
		target := orders[g.intN(len(orders))]
		g.call(ctx, OpGet, tableID, func(ctx context.Context) error {
			_, err := g.client.GetOrder(ctx, tableID, target.ID)
			return err
		})
	}
}

func (g *Generator) create(ctx context.Context, tableID uint32, count int) {
	items := make([]order.MenuItem, count)
	for i := range items {
		items[i] = g.menu[g.intN(len(g.menu))]
	}
	g.call(ctx, OpCreate, tableID, func(ctx context.Context) error {
		_, err := g.client.CreateOrders(ctx, tableID, items)
		return err
	})
}

// call runs one network operation under the per-call timeout, records it and
// logs a failure.
func (g *Generator) call(ctx context.Context, op string, tableID uint32, fn func(ctx context.Context) error) error {
	if g.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.OpTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	if g.metrics != nil {
		g.metrics.observe(op, err, time.Since(start))
	}

	if err != nil {
		g.log.Warn(ctx, "operation failed", "op", op, "table_id", tableID, "error", err)
		return err
	}
	g.log.Debug(ctx, "operation done", "op", op, "table_id", tableID)
	return nil
}
