package kinde

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/kinde/pkg/idx"
	"github.com/aussiebroadwan/kinde/pkg/store"
)

// FlowState is the position of the SDK in the login flow.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowAwaitingRedirect
	FlowExchanging
	FlowAuthenticated
	FlowFailed
)

func (f FlowState) String() string {
	switch f {
	case FlowIdle:
		return "idle"
	case FlowAwaitingRedirect:
		return "awaiting_redirect"
	case FlowExchanging:
		return "exchanging"
	case FlowAuthenticated:
		return "authenticated"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlowObserver is notified after every transition, outside the SDK's lock.
type FlowObserver interface {
	OnFlowTransition(ctx context.Context, from, to FlowState)
}

// FlowObserverFunc adapts a function to FlowObserver.
type FlowObserverFunc func(ctx context.Context, from, to FlowState)

func (f FlowObserverFunc) OnFlowTransition(ctx context.Context, from, to FlowState) {
	f(ctx, from, to)
}

// FlowState returns the current state.
func (s *SDK) FlowState() FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SDK) attemptID() idx.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// setAttempt tags subsequent log lines with id. idx.Zero removes the tag.
func (s *SDK) setAttempt(id idx.ID) {
	s.mu.Lock()
	s.attempt = id
	s.mu.Unlock()
}

func (s *SDK) transition(ctx context.Context, to FlowState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.log(ctx).Debug("flow transition", "from", from.String(), "flow_state", to.String())

	for _, o := range observers {
		o.OnFlowTransition(ctx, from, to)
	}
}

// statusTracker mirrors flow transitions into the store's auth_status key.
type statusTracker struct {
	sdk *SDK
}

func (t *statusTracker) OnFlowTransition(ctx context.Context, _, to FlowState) {
	var status store.AuthStatus
	switch to {
	case FlowAwaitingRedirect, FlowExchanging:
		status = store.AuthStatusAuthenticating
	case FlowAuthenticated:
		status = store.AuthStatusAuthenticated
	default:
		status = store.AuthStatusUnauthenticated
	}

	if err := t.sdk.store.SetAuthStatus(ctx, status); err != nil {
		t.sdk.log(ctx).Warn("failed to persist auth status", "status", string(status), "error", err)
	}
}
