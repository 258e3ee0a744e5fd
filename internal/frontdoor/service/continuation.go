package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

// Route is where the caller should send the user next.
type Route string

const (
	RouteEntry    Route = "entry"    // unauthenticated entry point
	RouteHome     Route = "home"     // dashboard
	RouteExternal Route = "external" // full navigation to Outcome.Location
)

// Outcome is the result of a flow step.
type Outcome struct {
	State    domain.ContinuationState
	Route    Route
	Location string // set for RouteExternal only
	Err      error
}

// Continuation offers an already signed-in user the choice to continue into
// the portal that asked for them, instead of logging in again.
type Continuation struct {
	engine *Engine
	store  store.CredentialStore
	gate   *RedirectGate
}

// State returns the persisted state. A finished flow reads as idle.
func (c *Continuation) State(ctx context.Context) (domain.ContinuationState, error) {
	st, err := c.store.ContinuationState(ctx)
	if err != nil {
		return domain.ContinuationIdle, err
	}
	if st.IsTerminal() {
		if err := c.transition(ctx, st, domain.ContinuationIdle); err != nil {
			return domain.ContinuationIdle, err
		}
		return domain.ContinuationIdle, nil
	}
	return st, nil
}

// InterceptSubmit runs at the start of a login submit. It reports true when
// the submit should be replaced by the continue prompt: a destination is
// pending, a refresh credential is stored and the access credential is still
// valid. The checks run in that order. A missing refresh credential clears
// the stored credentials so the normal login starts from nothing, but the
// pending destination survives for that login.
//
// A prompt that is already showing is held to the same checks and is
// withdrawn once any of them fails.
func (c *Continuation) InterceptSubmit(ctx context.Context) (bool, error) {
	st, err := c.State(ctx)
	if err != nil {
		return false, err
	}
	from := domain.ContinuationIdle
	switch st {
	case domain.ContinuationAwaitingConfirmation:
		from = st
	case domain.ContinuationRefreshing:
		// A confirm that never finished. Nothing else is running for this
		// tab once a new submit arrives.
		c.engine.Logger.WarnContext(ctx, "abandoning stale continuation")
		if err := c.transition(ctx, st, domain.ContinuationFailed); err != nil {
			return false, err
		}
		if err := c.transition(ctx, domain.ContinuationFailed, domain.ContinuationIdle); err != nil {
			return false, err
		}
	}

	dest, err := c.store.Pending(ctx)
	if err != nil {
		return false, err
	}
	if dest == "" {
		return false, c.withdraw(ctx, from)
	}

	rec, err := c.store.Read(ctx)
	if err != nil {
		return false, err
	}
	if !rec.HasRefresh() {
		c.engine.Logger.InfoContext(ctx, "no refresh credential, continuing with normal login")
		if err := c.clearSession(ctx); err != nil {
			return false, err
		}
		// The login that follows still owes the user their destination.
		return false, c.store.SavePending(ctx, dest)
	}
	if !jwtx.IsValid(rec.AccessToken, c.engine.Skew, c.engine.now()) {
		return false, c.withdraw(ctx, from)
	}

	if from == domain.ContinuationAwaitingConfirmation {
		return true, nil
	}
	if err := c.transition(ctx, from, domain.ContinuationAwaitingConfirmation); err != nil {
		return false, err
	}
	c.engine.Logger.InfoContext(ctx, "offering session continuation", "origin", originOf(dest))
	return true, nil
}

// withdraw takes down a showing prompt whose preconditions no longer hold.
func (c *Continuation) withdraw(ctx context.Context, from domain.ContinuationState) error {
	if from != domain.ContinuationAwaitingConfirmation {
		return nil
	}
	c.engine.Logger.InfoContext(ctx, "continue prompt no longer applies, continuing with normal login")
	return c.transition(ctx, from, domain.ContinuationIdle)
}

// Confirm refreshes the session and hands the fresh credential to the
// pending destination. The destination and refresh credential are re-read
// from the store here, never taken from an earlier step.
func (c *Continuation) Confirm(ctx context.Context) Outcome {
	st, err := c.State(ctx)
	if err != nil {
		return Outcome{State: st, Route: RouteEntry, Err: err}
	}
	switch st {
	case domain.ContinuationAwaitingConfirmation:
	case domain.ContinuationRefreshing:
		return Outcome{State: st, Err: ErrInvalidTransition}
	default:
		c.engine.Logger.ErrorContext(ctx, "continue confirmed outside of a prompt", "state", st)
		return c.fail(ctx, st, ErrInvalidTransition)
	}

	if err := c.transition(ctx, st, domain.ContinuationRefreshing); err != nil {
		return Outcome{State: st, Route: RouteEntry, Err: err}
	}
	st = domain.ContinuationRefreshing

	dest, err := c.store.Pending(ctx)
	if err != nil {
		return c.fail(ctx, st, err)
	}
	if dest == "" {
		return c.fail(ctx, st, ErrNoDestination)
	}
	if _, err := c.gate.Authorize(dest); err != nil {
		return c.fail(ctx, st, err)
	}

	rec, err := c.store.Read(ctx)
	if err != nil {
		return c.fail(ctx, st, err)
	}
	if !rec.HasRefresh() {
		return c.fail(ctx, st, ErrNoRefreshCredential)
	}

	resp, err := c.engine.Auth.Refresh(ctx, rec.AccessToken, rec.RefreshToken)
	if ctx.Err() != nil {
		// Nobody is waiting for this result any more. The next submit
		// finds the flow stuck in refreshing and resets it.
		return Outcome{State: st, Err: ctx.Err()}
	}
	if err != nil {
		return c.fail(ctx, st, err)
	}

	next := recordFromRefresh(rec, resp)
	if err := c.store.Save(ctx, next); err != nil {
		return c.fail(ctx, st, err)
	}
	location, err := c.gate.Handoff(dest, next.AccessToken)
	if err != nil {
		return c.fail(ctx, st, err)
	}
	if err := c.store.DiscardPending(ctx); err != nil {
		return c.fail(ctx, st, err)
	}
	if err := c.transition(ctx, st, domain.ContinuationCompleted); err != nil {
		return c.fail(ctx, st, err)
	}

	c.engine.Logger.InfoContext(ctx, "session continued into portal",
		"origin", originOf(dest),
		"token", cryptox.Fingerprint(next.AccessToken),
	)
	return Outcome{State: domain.ContinuationCompleted, Route: RouteExternal, Location: location}
}

// Cancel declines the prompt: the session and pending destination are
// dropped and the user starts again at the entry point. It is accepted from
// any state.
func (c *Continuation) Cancel(ctx context.Context) Outcome {
	st, err := c.store.ContinuationState(ctx)
	if err != nil {
		st = domain.ContinuationIdle
	}
	if st == domain.ContinuationAwaitingConfirmation {
		if err := c.transition(ctx, st, domain.ContinuationIdle); err != nil {
			return Outcome{State: st, Route: RouteEntry, Err: err}
		}
	}
	if err := c.clearSession(ctx); err != nil {
		return Outcome{State: domain.ContinuationIdle, Route: RouteEntry, Err: err}
	}
	c.engine.Logger.InfoContext(ctx, "session continuation cancelled", "from", st)
	return Outcome{State: domain.ContinuationIdle, Route: RouteEntry}
}

// fail moves the flow through failed back to idle and clears the session.
func (c *Continuation) fail(ctx context.Context, from domain.ContinuationState, cause error) Outcome {
	c.engine.Logger.WarnContext(ctx, "session continuation failed", "state", from, "error", cause)

	if from == domain.ContinuationRefreshing {
		if err := c.transition(ctx, from, domain.ContinuationFailed); err != nil {
			c.engine.Logger.ErrorContext(ctx, "failed to record continuation failure", "error", err)
		}
	}
	if err := c.clearSession(ctx); err != nil {
		c.engine.Logger.ErrorContext(ctx, "failed to clear session", "error", err)
	}
	return Outcome{State: domain.ContinuationIdle, Route: RouteEntry, Err: cause}
}

// clearSession removes every session key, including the continuation state,
// which leaves the machine idle.
func (c *Continuation) clearSession(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// transition is the only writer of the continuation state.
func (c *Continuation) transition(ctx context.Context, from, to domain.ContinuationState) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if err := c.store.SetContinuationState(ctx, to); err != nil {
		return fmt.Errorf("service: persist continuation state: %w", err)
	}
	c.engine.Logger.DebugContext(ctx, "continuation transition", "from", from, "to", to)
	return nil
}
