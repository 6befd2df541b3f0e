// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Player.
type Mock struct {
	mu         sync.Mutex
	open       bool
	uri        string
	status     Status
	duration   time.Duration
	openErr    error
	openGate   chan struct{}
	openCalls  []string
	seekCalls  []time.Duration
	playCalls  int
	pauseCalls int
	closeCalls int
	finishedCh chan struct{}
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{finishedCh: make(chan struct{}, 1)}
}

func (m *Mock) Open(ctx context.Context, uri string) error {
	m.mu.Lock()
	m.open = false
	m.status = Status{}
	m.openCalls = append(m.openCalls, uri)
	gate := m.openGate
	err := m.openErr
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.uri = uri
	m.status = Status{Duration: m.duration}
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if !m.open {
		return ErrNoMedia
	}
	m.status.Playing = true
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	if !m.open {
		return ErrNoMedia
	}
	m.status.Playing = false
	return nil
}

func (m *Mock) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	if !m.open {
		return ErrNoMedia
	}
	m.status.Position = pos
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	m.open = false
	m.uri = ""
	m.status = Status{}
	return nil
}

func (m *Mock) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mock) FinishedChan() <-chan struct{} {
	return m.finishedCh
}

// Test helpers

// SetOpenError makes subsequent Open calls fail with err.
func (m *Mock) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// HoldOpen makes subsequent Open calls block until the returned func is called
// or their context is cancelled.
func (m *Mock) HoldOpen() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.openGate = gate
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.openGate == gate {
				m.openGate = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// SetDuration sets the duration reported by media opened afterwards (and the current one).
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
	if m.open {
		m.status.Duration = d
	}
}

// SetPosition simulates playback progress.
func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Position = d
}

// SetBuffering simulates the engine stalling on network input.
func (m *Mock) SetBuffering(b bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Buffering = b
}

// SimulateFinished simulates the open media reaching its end.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	m.status.Playing = false
	m.status.Position = m.status.Duration
	m.mu.Unlock()
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}

func (m *Mock) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Mock) URI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uri
}

func (m *Mock) OpenCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.openCalls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
