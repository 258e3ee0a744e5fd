package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
	"github.com/aussiebroadwan/frontdoor/pkg/idx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

// Status is the watchdog's view of the stored credential.
type Status string

const (
	StatusNotMonitoring Status = "not-monitoring"
	StatusHealthy       Status = "healthy"
	StatusNearExpiry    Status = "near-expiry"
	StatusExpired       Status = "expired"
)

// Report is the result of one expiry check.
type Report struct {
	Status      Status `json:"status"`
	SecondsLeft int    `json:"seconds_left"`
	Role        string `json:"role,omitempty"`
}

// Assess classifies rec without side effects. A malformed credential reads
// as expired.
func (e *Engine) Assess(rec domain.SessionRecord) Report {
	if !rec.HasAccess() {
		return Report{Status: StatusNotMonitoring}
	}

	claims, ok := jwtx.Decode(rec.AccessToken)
	if !ok {
		return Report{Status: StatusExpired}
	}
	left := jwtx.TimeRemaining(claims, e.Skew, e.now())
	if left.Expired {
		return Report{Status: StatusExpired, Role: claims.ResolvedRole()}
	}

	r := Report{Status: StatusHealthy, SecondsLeft: left.SecondsLeft, Role: claims.ResolvedRole()}
	if time.Duration(left.SecondsLeft)*time.Second <= e.Threshold {
		r.Status = StatusNearExpiry
	}
	return r
}

// WatchdogHooks are invoked without any watchdog lock held, so a hook may
// call back into the watchdog (an auto-renewing OnNearExpiry, say).
type WatchdogHooks struct {
	// OnNearExpiry fires once each time the near-expiry warning is raised.
	OnNearExpiry func(ctx context.Context, r Report)
	// OnLogout fires after the session has been cleared.
	OnLogout func(ctx context.Context, reason error)
}

// Watchdog re-evaluates the stored credential on an interval and ends the
// session once it expires.
//
// Renewals are collapsed with singleflight, so concurrent Renew calls share
// one refresh request. Every renewal is tagged with the epoch current when it
// started; Stop and any session end mint a new epoch, and a renewal whose
// epoch is no longer current drops its result instead of writing it.
type Watchdog struct {
	engine *Engine
	store  store.CredentialStore
	hooks  WatchdogHooks

	renewals singleflight.Group

	mu        sync.Mutex
	status    Status
	surfaced  bool // near-expiry is showing
	notified  bool // OnNearExpiry already fired for this credential
	epoch     idx.ID
	started   bool
	stopped   bool
	runCtx    context.Context
	cancelRun context.CancelFunc

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatchdog builds a watchdog over st. Call Start to begin the periodic
// check, or drive Check directly.
func (e *Engine) NewWatchdog(st store.CredentialStore, hooks WatchdogHooks) *Watchdog {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watchdog{
		engine:    e,
		store:     st,
		hooks:     hooks,
		status:    StatusNotMonitoring,
		epoch:     idx.New(),
		runCtx:    ctx,
		cancelRun: cancel,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Status returns the last computed status.
func (w *Watchdog) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Start runs the check loop in the background. It is non-blocking.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run()
	w.engine.Logger.Info("expiry watchdog started", "interval", w.engine.Interval, "threshold", w.engine.Threshold)
}

// Done is closed once the check loop has exited.
func (w *Watchdog) Done() <-chan struct{} { return w.doneCh }

// Stop ends monitoring and waits for the loop to exit. A renewal still in
// flight completes its network call but its result is discarded.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.epoch = idx.New()
		w.status = StatusNotMonitoring
		w.surfaced = false
		started := w.started
		w.mu.Unlock()

		close(w.stopCh)
		w.cancelRun()
		if started {
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		w.engine.Logger.Info("expiry watchdog stopped")
	})
}

func (w *Watchdog) run() {
	defer close(w.doneCh)

	interval := w.engine.Interval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r, err := w.Check(w.runCtx)
		switch {
		case err != nil:
			w.engine.Logger.Warn("expiry check failed", "error", err)
		case r.Status == StatusNotMonitoring, r.Status == StatusExpired:
			w.engine.Logger.Debug("expiry watchdog idle", "status", r.Status)
			return
		}

		select {
		case <-ticker.C:
		case <-w.stopCh:
			return
		}
	}
}

// Check re-reads the credential and updates the status. An expired or
// malformed credential clears the session and fires OnLogout.
func (w *Watchdog) Check(ctx context.Context) (Report, error) {
	if w.isStopped() {
		return Report{Status: StatusNotMonitoring}, nil
	}

	rec, err := w.store.Read(ctx)
	if err != nil {
		return Report{Status: w.Status()}, err
	}
	r := w.engine.Assess(rec)

	switch r.Status {
	case StatusNotMonitoring:
		w.mu.Lock()
		w.status, w.surfaced, w.notified = StatusNotMonitoring, false, false
		w.mu.Unlock()

	case StatusExpired:
		w.end(ctx, ErrSessionExpired)

	case StatusNearExpiry:
		w.mu.Lock()
		w.status, w.surfaced = StatusNearExpiry, true
		notify := !w.notified
		w.notified = true
		w.mu.Unlock()
		if notify && w.hooks.OnNearExpiry != nil {
			w.hooks.OnNearExpiry(ctx, r)
		}

	case StatusHealthy:
		w.mu.Lock()
		if w.surfaced {
			r.Status = StatusNearExpiry
		}
		w.status = r.Status
		w.mu.Unlock()
	}
	return r, nil
}

// Dismiss hides the near-expiry warning. It is not raised again for the
// same credential.
func (w *Watchdog) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surfaced = false
	if w.status == StatusNearExpiry {
		w.status = StatusHealthy
	}
}

// Renew exchanges the refresh credential for a new session. Concurrent
// callers share one request and its result.
func (w *Watchdog) Renew(ctx context.Context) (Report, error) {
	v, err, shared := w.renewals.Do("renew", func() (any, error) {
		return w.renew(ctx)
	})
	if shared {
		w.engine.Logger.DebugContext(ctx, "joined in-flight renewal")
	}
	r, _ := v.(Report)
	return r, err
}

func (w *Watchdog) renew(ctx context.Context) (Report, error) {
	w.mu.Lock()
	epoch, stopped := w.epoch, w.stopped
	w.mu.Unlock()
	if stopped {
		return Report{Status: StatusNotMonitoring}, ErrStaleRenewal
	}

	rec, err := w.store.Read(ctx)
	if err != nil {
		return Report{Status: w.Status()}, err
	}
	if !rec.HasAccess() {
		return Report{Status: StatusNotMonitoring}, ErrNoSession
	}
	if !rec.HasRefresh() {
		w.end(ctx, ErrNoRefreshCredential)
		return Report{Status: StatusExpired}, ErrNoRefreshCredential
	}

	resp, err := w.engine.Auth.Refresh(ctx, rec.AccessToken, rec.RefreshToken)

	w.mu.Lock()
	if w.epoch != epoch || w.stopped || ctx.Err() != nil {
		w.mu.Unlock()
		w.engine.Logger.DebugContext(ctx, "discarding late renewal result", "epoch", epoch)
		return Report{Status: w.Status()}, ErrStaleRenewal
	}
	if err != nil {
		w.mu.Unlock()
		w.engine.Logger.WarnContext(ctx, "renewal failed", "error", err)
		w.end(ctx, err)
		return Report{Status: StatusExpired}, err
	}

	next := recordFromRefresh(rec, resp)
	r := w.engine.Assess(next)
	// The write happens under the lock so Stop cannot slip in between the
	// relevance check and the store update.
	saveErr := w.store.Save(ctx, next)
	if saveErr == nil && r.Status != StatusExpired {
		w.epoch = idx.New()
		w.status = r.Status
		w.surfaced = r.Status == StatusNearExpiry
		w.notified = false
	}
	w.mu.Unlock()
	if saveErr != nil {
		return Report{Status: w.Status()}, saveErr
	}
	if r.Status == StatusExpired {
		w.end(ctx, ErrSessionExpired)
		return r, ErrSessionExpired
	}

	w.engine.Logger.InfoContext(ctx, "session renewed",
		"token", cryptox.Fingerprint(next.AccessToken),
		"rotated_refresh", next.RefreshToken != rec.RefreshToken,
		"status", r.Status,
	)
	// No hooks fire from here: an OnNearExpiry that renews would re-enter
	// this call.
	return r, nil
}

// end clears the session and fires OnLogout. Any renewal in flight is
// invalidated.
func (w *Watchdog) end(ctx context.Context, reason error) {
	w.mu.Lock()
	w.epoch = idx.New()
	w.status, w.surfaced, w.notified = StatusExpired, false, false
	w.mu.Unlock()

	if err := w.store.Clear(ctx); err != nil {
		w.engine.Logger.ErrorContext(ctx, "failed to clear session", "error", err)
	}
	w.engine.Logger.InfoContext(ctx, "session ended", "reason", reason)

	if w.hooks.OnLogout != nil {
		w.hooks.OnLogout(ctx, reason)
	}
}

func (w *Watchdog) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}
