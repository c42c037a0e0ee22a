package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithConfig_SingleWriter(t *testing.T) {
	t.Setenv("CITADEL_HOME", t.TempDir())
	ctx := context.Background()
	cfg := offlineConfig(t)

	first, err := NewWithConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = NewWithConfig(ctx, cfg, zap.NewNop())
	var locked *LockedError
	require.ErrorAs(t, err, &locked, "a second engine over the same record is refused")

	_, err = first.Engine.UsePortal(ctx)
	require.NoError(t, err)
	first.Close()

	second, err := NewWithConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 1, second.Engine.Snapshot().Counters["portalUses"])
}

func TestServe_PublishesAddrAndLoadsShowDataOnce(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CITADEL_HOME", home)

	var mu sync.Mutex
	hits := map[string]int{}
	var total atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		total.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.API.Port = 0
	cfg.Provider.BaseURL = srv.URL
	cfg.Provider.Timeout = "1s"

	d, err := NewWithConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return len(d.Health.Statuses()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, d.Health.IsHealthy(), "the first round sees the loaded show data")
	assert.True(t, d.Engine.Snapshot().WorldLoaded)

	info, err := ReadLock(home)
	require.NoError(t, err)
	require.NotEmpty(t, info.Addr)
	resp, err := http.Get(info.Addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mu.Lock()
	assert.NotEmpty(t, hits)
	for path, n := range hits {
		assert.Equal(t, 1, n, "%s fetched once", path)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
	assert.Equal(t, int32(3), total.Load())
}
