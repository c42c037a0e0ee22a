package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/infra/sqlite"
)

func sqliteCheck(t *testing.T) Check {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Check{Name: "storage", CheckFn: func(ctx context.Context) error { return db.Ping() }}
}

func TestChecker_DefaultInterval(t *testing.T) {
	c := NewChecker(0, nil)
	assert.Equal(t, DefaultInterval, c.interval)
	assert.Empty(t, c.checks)
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(0, zap.NewNop(), sqliteCheck(t))
	assert.True(t, c.IsHealthy(), "no statuses yet means vacuously healthy")
	assert.Empty(t, c.Statuses())
}

func TestChecker_RunOnceHealthy(t *testing.T) {
	c := NewChecker(0, zap.NewNop(), sqliteCheck(t), DirCheck("data_dir", t.TempDir()))
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Healthy, "%s: %s", s.Name, s.Error)
		assert.False(t, s.CheckedAt.IsZero())
	}
	assert.True(t, c.IsHealthy())
}

func TestChecker_FailureRunsRecovery(t *testing.T) {
	recovered := 0
	c := NewChecker(0, zap.NewNop(), Check{
		Name:      "show_data",
		CheckFn:   func(ctx context.Context) error { return errors.New("built-in data in use") },
		RecoverFn: func(ctx context.Context) error { recovered++; return errors.New("still offline") },
	})
	c.RunOnce(context.Background())

	assert.Equal(t, 1, recovered)
	assert.False(t, c.IsHealthy())
	s := c.Statuses()[0]
	assert.Equal(t, "show_data", s.Name)
	assert.Equal(t, "built-in data in use", s.Error)
}

func TestChecker_StatusesIsCopy(t *testing.T) {
	c := NewChecker(0, zap.NewNop(), sqliteCheck(t))
	c.RunOnce(context.Background())

	s := c.Statuses()
	s[0].Healthy = false
	assert.True(t, c.Statuses()[0].Healthy)
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	c := NewChecker(0, zap.NewNop(), sqliteCheck(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	assert.Len(t, c.Statuses(), 1)
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	assert.NoError(t, DirCheck("d", dir).CheckFn(ctx))
	assert.NoError(t, DirCheck("d", filepath.Join(dir, "missing")).CheckFn(ctx))

	file := filepath.Join(dir, "state.db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	assert.Error(t, DirCheck("d", file).CheckFn(ctx))
}
