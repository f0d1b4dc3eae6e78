// Package listener provides the generic subscribe-decode-dispatch loop
// shared by every topic consumer: one engine parameterized by a (topic,
// handler) pair instead of a type per event.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// State is the lifecycle of one subscription.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateReconnecting
	StatePermanentlyFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReconnecting:
		return "reconnecting"
	case StatePermanentlyFailed:
		return "permanently_failed"
	}
	return "unknown"
}

// ErrPermanentlyFailed is returned when the reconnect budget is exhausted.
// The listener will not recover without an external restart.
var ErrPermanentlyFailed = errors.New("listener permanently failed")

const (
	DefaultMaxAttempts    = 10
	DefaultReconnectDelay = 5 * time.Second
)

// Handler processes one raw message. A handler error is logged and the
// loop moves on: a poison message never terminates the subscription.
type Handler func(ctx context.Context, payload []byte) error

// Subscription delivers one topic's messages sequentially.
type Subscription interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport creates subscriptions; implemented by Kafka in production and
// by fakes in tests.
type Transport interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Listener runs one topic subscription with bounded reconnects. Listeners
// for different topics are independent units of concurrency: each carries
// its own attempt counter and failure state.
type Listener struct {
	topic     string
	handler   Handler
	transport Transport

	maxAttempts    int
	reconnectDelay time.Duration

	state    atomic.Int32
	attempts int
}

// Option tweaks reconnect behavior; production uses the defaults.
type Option func(*Listener)

func WithMaxAttempts(n int) Option {
	return func(l *Listener) { l.maxAttempts = n }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(l *Listener) { l.reconnectDelay = d }
}

func New(topic string, transport Transport, handler Handler, opts ...Option) *Listener {
	l := &Listener{
		topic:          topic,
		handler:        handler,
		transport:      transport,
		maxAttempts:    DefaultMaxAttempts,
		reconnectDelay: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Listener) Topic() string { return l.topic }

func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
}

// Run drives the subscription until the context is cancelled or the
// reconnect budget runs out. Message handling is strictly sequential.
func (l *Listener) Run(ctx context.Context) error {
	for {
		l.setState(StateConnecting)
		sub, err := l.transport.Subscribe(ctx, l.topic)
		if err != nil {
			if waitErr := l.backoff(ctx, err); waitErr != nil {
				return waitErr
			}
			continue
		}

		l.setState(StateSubscribed)
		l.attempts = 0
		err = l.consume(ctx, sub)
		_ = sub.Close()

		if ctx.Err() != nil {
			l.setState(StateDisconnected)
			return ctx.Err()
		}
		if waitErr := l.backoff(ctx, err); waitErr != nil {
			return waitErr
		}
	}
}

// consume processes messages until a transport error or cancellation.
func (l *Listener) consume(ctx context.Context, sub Subscription) error {
	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := l.handler(ctx, payload); err != nil {
			log.Printf("[Listener] Message handling failed: topic=%s attempts=%d payload=%s: %v",
				l.topic, l.attempts, truncate(payload, 512), err)
		}
	}
}

// backoff waits the fixed delay before the next connection attempt, or
// gives up once the budget is spent.
func (l *Listener) backoff(ctx context.Context, cause error) error {
	l.attempts++
	if l.attempts >= l.maxAttempts {
		l.setState(StatePermanentlyFailed)
		log.Printf("[Listener] Giving up on topic=%s after %d attempts: %v", l.topic, l.attempts, cause)
		return fmt.Errorf("%w: topic=%s: %v", ErrPermanentlyFailed, l.topic, cause)
	}

	l.setState(StateReconnecting)
	log.Printf("[Listener] Reconnecting topic=%s (attempt %d/%d): %v", l.topic, l.attempts, l.maxAttempts, cause)

	select {
	case <-ctx.Done():
		l.setState(StateDisconnected)
		return ctx.Err()
	case <-time.After(l.reconnectDelay):
		return nil
	}
}

func truncate(payload []byte, max int) string {
	if len(payload) <= max {
		return string(payload)
	}
	return string(payload[:max]) + "..."
}
