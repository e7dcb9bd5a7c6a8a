package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableorders/pkg/order"
)

func newOrder(tableID uint32) order.Order {
	return order.Order{
		ID:                 uuid.New(),
		TableID:            tableID,
		Menu:               order.MenuItem{ID: uuid.New(), Name: "Ramen"},
		CookingTimeMinutes: 10,
		CreatedAt:          time.Now().UTC(),
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := newOrder(1)
	require.NoError(t, repo.Append(ctx, 1, []order.Order{o}))

	got, err := repo.Get(ctx, 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, 1, o.ID))
	_, err = repo.Get(ctx, 1, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1, o.ID), order.ErrNotFound)

	list, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListUnknownTable(t *testing.T) {
	list, err := New().List(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNotFoundIsCollapsed(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := newOrder(1)
	require.NoError(t, repo.Append(ctx, 1, []order.Order{o}))

	_, errUnknownTable := repo.Get(ctx, 2, o.ID)
	_, errUnknownOrder := repo.Get(ctx, 1, uuid.New())
	assert.Equal(t, errUnknownTable, errUnknownOrder)
	assert.Equal(t, repo.Delete(ctx, 2, o.ID), repo.Delete(ctx, 1, uuid.New()))
}

func TestAppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := New()
	first := []order.Order{newOrder(3), newOrder(3)}
	second := []order.Order{newOrder(3)}
	require.NoError(t, repo.Append(ctx, 3, first))
	require.NoError(t, repo.Append(ctx, 3, second))

	list, err := repo.List(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), list)
}

func TestDeleteKeepsOthers(t *testing.T) {
	ctx := context.Background()
	repo := New()
	batch := []order.Order{newOrder(1), newOrder(1), newOrder(1)}
	require.NoError(t, repo.Append(ctx, 1, batch))

	require.NoError(t, repo.Delete(ctx, 1, batch[1].ID))
	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []order.Order{batch[0], batch[2]}, list)
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := newOrder(1)
	require.NoError(t, repo.Append(ctx, 1, []order.Order{o}))

	list, _ := repo.List(ctx, 1)
	list[0].CookingTimeMinutes = 99

	got, err := repo.Get(ctx, 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CookingTimeMinutes)
}

func TestConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	repo := New()
	const n = 100

	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			assert.NoError(t, repo.Append(ctx, 7, []order.Order{newOrder(7)}))
		})
	}
	wg.Wait()

	list, err := repo.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, n)
	seen := make(map[uuid.UUID]bool, n)
	for _, o := range list {
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestBatchAppendIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := New()
	const batchSize = 5

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			list, _ := repo.List(ctx, 1)
			assert.Zero(t, len(list)%batchSize, "observed partial batch of %d", len(list))
		}
	})

	for range 50 {
		batch := make([]order.Order, batchSize)
		for i := range batch {
			batch[i] = newOrder(1)
		}
		require.NoError(t, repo.Append(ctx, 1, batch))
	}
	close(done)
	wg.Wait()
}
