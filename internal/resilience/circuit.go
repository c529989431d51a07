package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting it.
var ErrCircuitOpen = eris.New("resilience: circuit open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// CircuitBreaker trips after a run of consecutive failures and rejects calls
// until a cooldown elapses. After the cooldown a single probe call is allowed
// through; success closes the breaker, failure reopens it.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    circuitState
	failures int
	openedAt time.Time
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// failures and allows a probe after cooldown.
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{name: name, threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed. When it returns true the caller
// must report the outcome via Record.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(cb.openedAt) >= cb.cooldown {
			cb.state = circuitHalfOpen
			zap.L().Info("circuit half-open, probing", zap.String("breaker", cb.name))
			return true
		}
		return false
	case circuitHalfOpen:
		// Probe already in flight.
		return false
	}
	return false
}

// Record reports the outcome of a call permitted by Allow.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != circuitClosed {
			zap.L().Info("circuit closed", zap.String("breaker", cb.name))
		}
		cb.state = circuitClosed
		cb.failures = 0
		return
	}

	cb.failures++
	if cb.state == circuitHalfOpen || cb.failures >= cb.threshold {
		cb.state = circuitOpen
		cb.openedAt = time.Now()
		zap.L().Warn("circuit opened",
			zap.String("breaker", cb.name),
			zap.Int("failures", cb.failures),
			zap.Duration("cooldown", cb.cooldown),
		)
	}
}
