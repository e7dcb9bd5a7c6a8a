package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableorders/pkg/api"
	"tableorders/pkg/logger"
	"tableorders/pkg/menu"
	"tableorders/pkg/order"
	"tableorders/pkg/order/memory"
)

func TestLoadgenAgainstServer(t *testing.T) {
	tables, err := order.NewTableRange(1, 5)
	require.NoError(t, err)
	repo := memory.New()
	log := logger.New(&bytes.Buffer{}, logger.LevelError, "test", nil)
	svc := order.NewService(repo, tables, menu.Catalog(), log)
	srv := httptest.NewServer(api.New(svc, log, nil, nil).Router())
	defer srv.Close()

	t.Setenv("SERVER_HOST", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--interval", "20ms", "--max-rps", "5", "--duration", "300ms"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	total := 0
	for id := uint32(1); id <= 5; id++ {
		list, err := repo.List(context.Background(), id)
		require.NoError(t, err)
		total += len(list)
	}
	assert.Positive(t, total)
}

func TestLoadgenRejectsTooManyUnits(t *testing.T) {
	tables, err := order.NewTableRange(1, 3)
	require.NoError(t, err)
	log := logger.New(&bytes.Buffer{}, logger.LevelError, "test", nil)
	svc := order.NewService(memory.New(), tables, menu.Catalog(), log)
	srv := httptest.NewServer(api.New(svc, log, nil, nil).Router())
	defer srv.Close()

	t.Setenv("SERVER_HOST", srv.URL)
	t.Setenv("LOG_LEVEL", "")

	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--max-rps", "4", "--duration", "100ms"})
	cmd.SetErr(&bytes.Buffer{})
	err = cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestLoadgenRequiresServerHost(t *testing.T) {
	t.Setenv("SERVER_HOST", "")
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--duration", "10ms"})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
