// Package daemon drives the periodic refresh of the pull-request
// snapshot. It owns a small state machine {unauthenticated, active,
// backgrounded} whose cadence follows UI visibility, guards against
// overlapping refreshes, and revokes credentials when the platform
// reports an authentication failure.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcin-skalski/prwatch/internal/aggregate"
	"github.com/marcin-skalski/prwatch/internal/auth"
	"github.com/marcin-skalski/prwatch/internal/config"
	"github.com/marcin-skalski/prwatch/internal/fetch"
	"github.com/marcin-skalski/prwatch/internal/github"
	"github.com/marcin-skalski/prwatch/internal/store"
)

type schedState int

const (
	stateUnauthenticated schedState = iota
	stateActive
	stateBackgrounded
)

func (s schedState) String() string {
	switch s {
	case stateActive:
		return "active"
	case stateBackgrounded:
		return "backgrounded"
	}
	return "unauthenticated"
}

// API is everything one refresh pass needs from the platform.
type API interface {
	fetch.API
	CurrentUser(ctx context.Context) (github.User, error)
}

// View is the read-only copy handed to consumers. Everything in it is
// detached from the daemon's own state.
type View struct {
	Authenticated bool
	Refreshing    bool
	Login         string
	Snapshot      aggregate.Snapshot
	HasSnapshot   bool
	Err           string // set when a refresh failed and no snapshot exists yet
}

// Daemon owns the refresh scheduler and the current snapshot.
type Daemon struct {
	cfg     *config.Config
	session *auth.Session
	cache   *store.Store // optional warm-start cache, may be nil
	logger  *slog.Logger

	// clientFor resolves the API for a refresh; swapped out in tests.
	clientFor func() (API, error)

	mu       sync.Mutex
	st       schedState
	visible  bool
	inFlight bool
	timer    *time.Timer
	timerGen int
	login    string
	snap     aggregate.Snapshot
	hasSnap  bool
	lastErr  string

	ctx context.Context
	wg  sync.WaitGroup
}

func New(cfg *config.Config, session *auth.Session, cache *store.Store, logger *slog.Logger) *Daemon {
	d := &Daemon{
		cfg:     cfg,
		session: session,
		cache:   cache,
		logger:  logger,
		visible: true,
		ctx:     context.Background(),
	}
	d.clientFor = func() (API, error) {
		return session.Client()
	}
	return d
}

// Run blocks until ctx is cancelled. If the session is already
// authenticated the scheduler goes active immediately; otherwise it stays
// unauthenticated until Activate is called after a login.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	d.loadCache()

	if d.session.Authenticated() {
		d.Activate()
	} else {
		d.logger.Info("no credentials, scheduler idle until sign-in")
	}

	<-ctx.Done()
	d.Stop()
	d.wg.Wait()
	return nil
}

// Activate moves unauthenticated → active and triggers an immediate
// refresh. A no-op in any other state.
func (d *Daemon) Activate() {
	d.mu.Lock()
	if d.st != stateUnauthenticated {
		d.mu.Unlock()
		return
	}
	if d.visible {
		d.st = stateActive
	} else {
		d.st = stateBackgrounded
	}
	d.armLocked()
	d.mu.Unlock()

	d.logger.Info("scheduler activated", "interval", d.cfg.ActiveInterval)
	d.spawnRefresh()
}

// SetVisible switches between the active and backgrounded cadences. The
// pending timer is cancelled and re-armed at the new interval; a refresh
// already in flight is left alone and still publishes its result.
func (d *Daemon) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.visible = visible
	if d.st == stateUnauthenticated {
		return
	}

	next := stateActive
	if !visible {
		next = stateBackgrounded
	}
	if next == d.st {
		return
	}
	d.st = next
	d.armLocked()
	d.logger.Debug("visibility changed", "state", d.st.String(), "interval", d.intervalLocked())
}

// RefreshNow requests an immediate refresh, subject to the same
// at-most-one-in-flight guard as timer ticks.
func (d *Daemon) RefreshNow() {
	d.spawnRefresh()
}

// SignOut tears the session down: timer cancelled, credential deleted,
// snapshot and identity cleared.
func (d *Daemon) SignOut() {
	d.revoke()
	d.logger.Info("signed out")
}

// Stop cancels the pending timer without touching the session.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimerLocked()
}

// GetSnapshot returns a detached copy of the current state.
func (d *Daemon) GetSnapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.snap
	snap.Pulls = append([]github.PullRequest(nil), d.snap.Pulls...)
	return View{
		Authenticated: d.st != stateUnauthenticated,
		Refreshing:    d.inFlight,
		Login:         d.login,
		Snapshot:      snap,
		HasSnapshot:   d.hasSnap,
		Err:           d.lastErr,
	}
}

// armLocked cancels any pending timer and starts a new one at the current
// state's interval. Caller holds d.mu.
func (d *Daemon) armLocked() {
	d.cancelTimerLocked()
	d.timerGen++
	gen := d.timerGen
	d.timer = time.AfterFunc(d.intervalLocked(), func() {
		d.onTick(gen)
	})
}

func (d *Daemon) cancelTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
}

func (d *Daemon) intervalLocked() time.Duration {
	if d.st == stateBackgrounded {
		return d.cfg.BackgroundInterval
	}
	return d.cfg.ActiveInterval
}

// onTick fires from the timer goroutine. Stale generations are ticks that
// were cancelled after the timer had already fired; they do nothing.
func (d *Daemon) onTick(gen int) {
	d.mu.Lock()
	if gen != d.timerGen || d.st == stateUnauthenticated {
		d.mu.Unlock()
		return
	}
	d.armLocked()
	d.mu.Unlock()

	d.spawnRefresh()
}

// spawnRefresh runs one refresh unless another is already in flight, in
// which case the tick is coalesced into a no-op.
func (d *Daemon) spawnRefresh() {
	d.mu.Lock()
	if d.st == stateUnauthenticated {
		d.mu.Unlock()
		return
	}
	if d.inFlight {
		d.mu.Unlock()
		d.logger.Debug("refresh already in flight, skipping tick")
		return
	}
	d.inFlight = true
	ctx := d.ctx
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			d.inFlight = false
			d.mu.Unlock()
		}()
		d.refresh(ctx)
	}()
}

func (d *Daemon) refresh(ctx context.Context) {
	started := time.Now()

	api, err := d.clientFor()
	if err != nil {
		d.handleFailure(err)
		return
	}

	login, err := d.resolveLogin(ctx, api)
	if err != nil {
		d.handleFailure(err)
		return
	}

	discovery := fetch.NewDiscovery(api, d.logger)
	fetcher := fetch.NewFetcher(api, discovery, d.logger)

	var result fetch.Result
	if d.cfg.Strategy == config.StrategyRepos {
		result, err = fetcher.ByRepository(ctx)
	} else {
		result, err = fetcher.Search(ctx, login)
	}
	if err != nil {
		d.handleFailure(err)
		return
	}

	snap := aggregate.Merge(result.Pulls, result.Truncated, time.Now())
	d.mu.Lock()
	d.snap = snap
	d.hasSnap = true
	d.lastErr = ""
	d.mu.Unlock()

	d.saveCache(snap)
	d.logger.Info("refresh complete",
		"pulls", len(snap.Pulls),
		"truncated", snap.Truncated,
		"took", time.Since(started).Round(time.Millisecond))
}

func (d *Daemon) resolveLogin(ctx context.Context, api API) (string, error) {
	d.mu.Lock()
	login := d.login
	d.mu.Unlock()
	if login != "" {
		return login, nil
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}

	d.mu.Lock()
	d.login = user.Login
	d.mu.Unlock()
	return user.Login, nil
}

// handleFailure classifies the error. An authentication failure revokes
// the credential synchronously; anything else keeps the prior snapshot
// (when there is one) and records the message.
func (d *Daemon) handleFailure(err error) {
	kind := github.Classify(err)

	if github.IsAuthFailure(err) {
		d.logger.Warn("authentication failure, revoking credentials", "err", err)
		d.revoke()
		return
	}

	d.logger.Error("refresh failed", "kind", kind.String(), "err", err)
	d.mu.Lock()
	if d.hasSnap {
		d.snap.LastError = err.Error()
	} else {
		d.lastErr = err.Error()
	}
	d.mu.Unlock()
}

// revoke returns the system to the unauthenticated state: timer
// cancelled, snapshot dropped, identity forgotten, stored credential
// deleted. The in-flight flag is owned by the refresh goroutine that
// set it; only its deferred reset releases the guard, so a refresh
// still on the wire keeps blocking new ones until it returns.
func (d *Daemon) revoke() {
	d.mu.Lock()
	d.st = stateUnauthenticated
	d.cancelTimerLocked()
	d.snap = aggregate.Snapshot{}
	d.hasSnap = false
	d.login = ""
	d.lastErr = ""
	d.mu.Unlock()

	if err := d.session.SignOut(); err != nil {
		d.logger.Error("credential deletion failed", "err", err)
	}
	d.saveCache(aggregate.Snapshot{})
}

func (d *Daemon) loadCache() {
	if d.cache == nil {
		return
	}
	snap, ok, err := d.cache.LoadSnapshot()
	if err != nil {
		d.logger.Warn("snapshot cache unreadable", "err", err)
		return
	}
	if !ok || len(snap.Pulls) == 0 {
		return
	}
	d.mu.Lock()
	if !d.hasSnap {
		d.snap = snap
		d.hasSnap = true
	}
	d.mu.Unlock()
	d.logger.Info("warm start from cache", "pulls", len(snap.Pulls), "refreshed_at", snap.RefreshedAt)
}

func (d *Daemon) saveCache(snap aggregate.Snapshot) {
	if d.cache == nil {
		return
	}
	if err := d.cache.SaveSnapshot(snap); err != nil {
		d.logger.Warn("snapshot cache write failed", "err", err)
	}
}
