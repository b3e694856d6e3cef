package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryFiresUntilStopped(t *testing.T) {
	var n atomic.Int32
	task := Every(context.Background(), 5*time.Millisecond, func() { n.Add(1) })
	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	task.Stop()
	require.True(t, task.Stopped())
	time.Sleep(20 * time.Millisecond)
	settled := n.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, settled, n.Load())
}

func TestParentCancelStopsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Every(ctx, time.Hour, func() {})
	cancel()
	require.True(t, task.Stopped())
}

func TestNilTask(t *testing.T) {
	var task *Task
	task.Stop()
	require.True(t, task.Stopped())
}
