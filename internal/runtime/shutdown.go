// Package runtime runs the process's cleanup steps when a command ends or a
// signal arrives: waiting for in-flight sends, closing the audit log and
// the log file.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joss/agentchat/internal/logging"
)

// CleanupFunc is one cleanup step. It should return when ctx is done.
type CleanupFunc func(ctx context.Context) error

// DefaultShutdownTimeout bounds all cleanup steps together.
const DefaultShutdownTimeout = 10 * time.Second

type namedStep struct {
	name string
	fn   CleanupFunc
}

// ShutdownManager runs registered cleanup steps once, in reverse order of
// registration.
type ShutdownManager struct {
	mu      sync.Mutex
	steps   []namedStep
	timeout time.Duration
	log     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// NewShutdownManager creates a manager whose steps share timeout.
func NewShutdownManager(timeout time.Duration) *ShutdownManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout: timeout,
		log:     logging.New("runtime"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Register adds a cleanup step. Later steps run first, so register a
// resource before the things that use it.
func (m *ShutdownManager) Register(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, namedStep{name: name, fn: fn})
}

// RegisterWait adds a step that blocks on wait (for example a WaitGroup)
// but gives up when the shutdown deadline passes.
func (m *ShutdownManager) RegisterWait(name string, wait func()) {
	m.Register(name, func(ctx context.Context) error {
		finished := make(chan struct{})
		go func() {
			wait()
			close(finished)
		}()
		select {
		case <-finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Context is cancelled when shutdown begins.
func (m *ShutdownManager) Context() context.Context {
	return m.ctx
}

// Done is closed when every step has finished or the deadline passed.
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

// ListenForSignals cancels Context on SIGINT or SIGTERM. The steps still run
// from Shutdown, on the caller's goroutine. The returned func stops
// listening.
func (m *ShutdownManager) ListenForSignals() (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			m.log.Info("signal_received", map[string]interface{}{"signal": sig.String()})
			m.cancel()
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(quit)
		})
	}
}

// Shutdown runs the steps once and returns their joined errors. Later
// calls return the same result.
func (m *ShutdownManager) Shutdown() error {
	m.once.Do(func() {
		m.err = m.run()
	})
	return m.err
}

func (m *ShutdownManager) run() error {
	defer close(m.done)
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	steps := make([]namedStep, len(m.steps))
	copy(steps, m.steps)
	m.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		start := time.Now()
		err := step.fn(ctx)
		m.log.TimedEvent("cleanup_step", start, map[string]interface{}{"step": step.name}, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}
