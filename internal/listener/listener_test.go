package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscription feeds a fixed sequence of payloads, then returns errs
// in order, then blocks until cancellation.
type fakeSubscription struct {
	mu       sync.Mutex
	payloads [][]byte
	errs     []error
	closed   bool
}

func (s *fakeSubscription) Next(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if len(s.payloads) > 0 {
		p := s.payloads[0]
		s.payloads = s.payloads[1:]
		s.mu.Unlock()
		return p, nil
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeTransport returns its subscriptions in order; once exhausted every
// Subscribe fails with connErr.
type fakeTransport struct {
	mu         sync.Mutex
	subs       []*fakeSubscription
	connErr    error
	subscribes int
}

func (t *fakeTransport) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribes++
	if len(t.subs) == 0 {
		if t.connErr != nil {
			return nil, t.connErr
		}
		return &fakeSubscription{}, nil
	}
	sub := t.subs[0]
	t.subs = t.subs[1:]
	return sub, nil
}

type recordingHandler struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (h *recordingHandler) handle(ctx context.Context, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, string(payload))
	return h.err
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.payloads...)
}

func TestListener_ProcessesMessagesInOrder(t *testing.T) {
	sub := &fakeSubscription{payloads: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}
	transport := &fakeTransport{subs: []*fakeSubscription{sub}}
	handler := &recordingHandler{}

	l := New("product.created", transport, handler.handle, WithReconnectDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 3
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c"}, handler.seen())
	assert.Equal(t, StateSubscribed, l.State())

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateDisconnected, l.State())
}

func TestListener_PoisonMessageDoesNotStopConsumption(t *testing.T) {
	sub := &fakeSubscription{payloads: [][]byte{[]byte("bad"), []byte("good")}}
	transport := &fakeTransport{subs: []*fakeSubscription{sub}}
	handler := &recordingHandler{err: errors.New("decode failure")}

	l := New("product.updated", transport, handler.handle, WithReconnectDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, StateSubscribed, l.State())
}

func TestListener_ReconnectsAfterTransportError(t *testing.T) {
	first := &fakeSubscription{
		payloads: [][]byte{[]byte("one")},
		errs:     []error{errors.New("connection reset")},
	}
	second := &fakeSubscription{payloads: [][]byte{[]byte("two")}}
	transport := &fakeTransport{subs: []*fakeSubscription{first, second}}
	handler := &recordingHandler{}

	l := New("product.approved", transport, handler.handle, WithReconnectDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"one", "two"}, handler.seen())
	assert.True(t, first.closed)
}

func TestListener_PermanentFailureAfterBudget(t *testing.T) {
	transport := &fakeTransport{connErr: errors.New("broker unreachable")}
	handler := &recordingHandler{}

	l := New("product.deleted", transport, handler.handle,
		WithMaxAttempts(3), WithReconnectDelay(time.Millisecond))

	err := l.Run(context.Background())

	assert.ErrorIs(t, err, ErrPermanentlyFailed)
	assert.Equal(t, StatePermanentlyFailed, l.State())
	assert.Equal(t, 3, transport.subscribes)
	assert.Empty(t, handler.seen())
}

func TestListener_AttemptsResetAfterSuccessfulSubscribe(t *testing.T) {
	dropping := &fakeSubscription{errs: []error{errors.New("dropped")}}
	final := &fakeSubscription{payloads: [][]byte{[]byte("done")}}
	transport := &fakeTransport{subs: []*fakeSubscription{dropping, final}}
	handler := &recordingHandler{}

	l := New("product.created", transport, handler.handle,
		WithMaxAttempts(3), WithReconnectDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, StateSubscribed, l.State())
}

func TestListener_CancelDuringBackoff(t *testing.T) {
	transport := &fakeTransport{connErr: errors.New("broker unreachable")}
	l := New("product.created", transport, func(ctx context.Context, p []byte) error { return nil },
		WithMaxAttempts(10), WithReconnectDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		return l.State() == StateReconnecting
	}, time.Second, time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateDisconnected, l.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "subscribed", StateSubscribed.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "permanently_failed", StatePermanentlyFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
