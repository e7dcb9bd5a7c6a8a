package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableorders/pkg/api"
	"tableorders/pkg/logger"
	"tableorders/pkg/menu"
	"tableorders/pkg/order"
	"tableorders/pkg/order/memory"
)

func newServer(t *testing.T) (*httptest.Server, []order.MenuItem) {
	t.Helper()
	tables, err := order.NewTableRange(1, 10)
	require.NoError(t, err)
	items := menu.Catalog()
	log := logger.New(&bytes.Buffer{}, logger.LevelError, "test", nil)
	svc := order.NewService(memory.New(), tables, items, log)
	srv := httptest.NewServer(api.New(svc, log, nil, nil).Router())
	t.Cleanup(srv.Close)
	return srv, items
}

func TestConfigAndMenus(t *testing.T) {
	ctx := context.Background()
	srv, items := newServer(t)
	c := New(srv.URL + "/")

	tables, err := c.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.TableRange{Start: 1, End: 10}, tables)

	got, err := c.Menus(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv, items := newServer(t)
	c := New(srv.URL)
	itemA := items[0]

	created, err := c.CreateOrders(ctx, 5, []order.MenuItem{itemA})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, uint32(5), created[0].TableID)
	assert.Equal(t, itemA, created[0].Menu)

	_, err = c.CreateOrders(ctx, 11, []order.MenuItem{itemA})
	assert.ErrorIs(t, err, ErrBadRequest)
	list, err := c.ListOrders(ctx, 11)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = c.ListOrders(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created[0].ID, list[0].ID)

	got, err := c.GetOrder(ctx, 5, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, got.ID)
	assert.True(t, created[0].CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, c.DeleteOrder(ctx, 5, created[0].ID))
	list, err = c.ListOrders(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = c.GetOrder(ctx, 5, created[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.DeleteOrder(ctx, 5, created[0].ID), ErrNotFound)
}

func TestCreateEmptyBatch(t *testing.T) {
	srv, _ := newServer(t)
	created, err := New(srv.URL).CreateOrders(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"boom"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListOrders(context.Background(), 1)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Message)
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListOrders(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).ListOrders(context.Background(), 1)
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithRateLimit(1, 1))
	ctx := context.Background()
	_, err := c.ListOrders(ctx, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = c.GetOrder(ctx, 1, uuid.New())
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
