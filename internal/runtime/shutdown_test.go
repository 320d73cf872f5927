package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(nil)
	m.Run()
}

func TestShutdownManager_RunsStepsInReverseOrder(t *testing.T) {
	m := NewShutdownManager(time.Second)

	var order []string
	m.Register("audit", func(ctx context.Context) error { order = append(order, "audit"); return nil })
	m.Register("sends", func(ctx context.Context) error { order = append(order, "sends"); return nil })

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"sends", "audit"}, order)
}

func TestShutdownManager_RunsOnce(t *testing.T) {
	m := NewShutdownManager(time.Second)

	calls := 0
	m.Register("step", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	err1 := m.Shutdown()
	err2 := m.Shutdown()

	assert.Equal(t, 1, calls)
	assert.ErrorContains(t, err1, "step: boom")
	assert.Equal(t, err1, err2)
}

func TestShutdownManager_JoinsErrorsAndKeepsGoing(t *testing.T) {
	m := NewShutdownManager(time.Second)
	errA := errors.New("a failed")

	ran := false
	m.Register("last", func(ctx context.Context) error { ran = true; return nil })
	m.Register("first", func(ctx context.Context) error { return errA })

	err := m.Shutdown()
	assert.ErrorIs(t, err, errA)
	assert.True(t, ran, "a failing step does not stop the rest")
}

func TestShutdownManager_ContextAndDone(t *testing.T) {
	m := NewShutdownManager(time.Second)

	select {
	case <-m.Context().Done():
		t.Fatal("context cancelled before shutdown")
	case <-m.Done():
		t.Fatal("done closed before shutdown")
	default:
	}

	require.NoError(t, m.Shutdown())

	assert.Error(t, m.Context().Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("done not closed after shutdown")
	}
}

func TestShutdownManager_RegisterWaitHonoursDeadline(t *testing.T) {
	m := NewShutdownManager(50 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Done()
	m.RegisterWait("sends", wg.Wait)

	start := time.Now()
	err := m.Shutdown()

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestShutdownManager_RegisterWaitReturnsWhenDone(t *testing.T) {
	m := NewShutdownManager(time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		wg.Done()
	}()
	m.RegisterWait("sends", wg.Wait)

	assert.NoError(t, m.Shutdown())
}

func TestShutdownManager_ListenForSignalsStop(t *testing.T) {
	m := NewShutdownManager(time.Second)
	stop := m.ListenForSignals()
	stop()
	stop()

	assert.NoError(t, m.Context().Err(), "stopping the listener does not cancel")
}
