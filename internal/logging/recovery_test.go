package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryHandler_Wrap(t *testing.T) {
	handler := NewRecoveryHandler("test-component")

	executed := false
	handler.Wrap(func() {
		executed = true
	})

	assert.True(t, executed)
}

func TestRecoveryHandler_WrapPanic(t *testing.T) {
	buf := capture(t, LevelInfo)
	handler := NewRecoveryHandler("test-component")

	handler.Wrap(func() {
		panic("test panic")
	})

	events := lines(t, buf)
	require.Len(t, events, 1)
	assert.Equal(t, "panic_recovered", events[0].Event)
	assert.Equal(t, "test-component", events[0].Component)
	assert.Equal(t, "test panic", events[0].Error)
	assert.Contains(t, events[0].Extra["stack"], "TestRecoveryHandler_WrapPanic")
}

func TestRecoveryHandler_WrapError(t *testing.T) {
	capture(t, LevelInfo)
	handler := NewRecoveryHandler("test-component")

	err := handler.WrapError(func() error {
		return nil
	})
	assert.NoError(t, err)

	err = handler.WrapError(func() error {
		panic("wrapped panic")
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "wrapped panic"))
}

func TestSafeGo(t *testing.T) {
	capture(t, LevelInfo)
	done := make(chan bool, 1)

	SafeGo("test-goroutine", func() {
		defer func() { done <- true }()
		panic("goroutine panic")
	})

	<-done
}

func TestRecover(t *testing.T) {
	capture(t, LevelInfo)
	executed := false

	func() {
		defer Recover("test-defer")
		executed = true
		panic("deferred panic")
	}()

	assert.True(t, executed)
}
