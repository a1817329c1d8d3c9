package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ActivityKind identifies a user interaction signal reported to the manager.
type ActivityKind int

const (
	ActivityPointerPress ActivityKind = iota
	ActivityKeyPress
	ActivityScroll
	ActivityTouchStart
	ActivityClick
	// ActivityPointerMove is high frequency and therefore throttled: it only
	// resets the activity clock once per throttle window.
	ActivityPointerMove
)

// Refresher exchanges a refresh token for a new access token. A rejected
// refresh token must be reported as ErrRefreshRejected (possibly wrapped); any
// other error is treated as transient.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Hooks are the collaborator-supplied reactions to session lifecycle events.
type Hooks struct {
	// PromptStayLoggedIn is invoked when the idle threshold elapses. Returning
	// true keeps the session alive with an immediate refresh; returning false
	// logs out. A nil hook is treated as a decline.
	PromptStayLoggedIn func(idleFor time.Duration) bool

	// RedirectToLogin is invoked after logout. The hook is responsible for
	// checking whether the application is already at the login entry point.
	RedirectToLogin func()
}

// Config holds the manager timing configuration.
type Config struct {
	// IdleTimeout is how long without activity before the idle prompt fires.
	IdleTimeout time.Duration

	// RefreshInterval is the proactive refresh cadence. It must sit inside the
	// issuer's access token expiry with some margin.
	RefreshInterval time.Duration

	// PointerMoveThrottle is the minimum gap between activity-clock resets
	// caused by pointer movement.
	PointerMoveThrottle time.Duration
}

// DefaultConfig returns the production timings: a 30 minute idle threshold and
// a 12 minute refresh cadence against an assumed ~15 minute issuer expiry.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:         30 * time.Minute,
		RefreshInterval:     12 * time.Minute,
		PointerMoveThrottle: 5 * time.Second,
	}
}

type refreshOutcome struct {
	token string
	err   error
}

// Manager owns the authentication session: it stores tokens, decodes claims,
// persists every transition to the Store before it becomes memory-visible,
// renews the access token proactively, and watches for idle sessions.
//
// Concurrent RefreshAccessToken calls are coalesced: the first caller becomes
// the leader and performs the single network call, all others enqueue as
// waiters and observe the leader's resolution.
type Manager struct {
	store     Store
	refresher Refresher
	cfg       Config
	hooks     Hooks
	log       zerolog.Logger
	now       func() time.Time

	mu           sync.Mutex
	session      Session
	refreshing   bool
	waiters      []chan refreshOutcome
	lastActivity time.Time
	active       bool
	moveLimiter  *rate.Limiter
	stopMonitor  chan struct{}
}

// Option modifies a Manager instance.
type Option func(*Manager)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the manager logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(hooks Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// NewManager creates a session manager. The store and refresher are required.
func NewManager(store Store, refresher Refresher, cfg Config, options ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewManager] refresher is required")
	}
	if cfg.IdleTimeout <= 0 || cfg.RefreshInterval <= 0 || cfg.PointerMoveThrottle <= 0 {
		return nil, errors.New("[NewManager] config durations must be positive")
	}

	m := &Manager{
		store:       store,
		refresher:   refresher,
		cfg:         cfg,
		log:         zerolog.Nop(),
		now:         time.Now,
		moveLimiter: rate.NewLimiter(rate.Every(cfg.PointerMoveThrottle), 1),
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// Initialize loads the persisted session. If a record exists its claims are
// re-decoded from the stored access token, tolerating decode failure. Must run
// before any other operation's output is considered valid.
func (m *Manager) Initialize() error {
	stored, err := m.store.Get()
	if err != nil {
		return errors.Wrap(err, "[Manager.Initialize] store.Get")
	}

	s := Session{}
	if stored != nil {
		s = *stored
	}
	s.UserInfo = nil
	if s.AccessToken != "" {
		info, err := DecodeUserInfo(s.AccessToken)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to decode stored access token")
		} else {
			s.UserInfo = info
		}
	}

	m.mu.Lock()
	m.session = s
	m.lastActivity = m.now()
	m.active = s.LoggedIn()
	if s.LoggedIn() {
		m.startMonitorLocked()
	}
	m.mu.Unlock()
	return nil
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// UserInfo returns the decoded claims, or nil when logged out or when the
// stored token could not be decoded.
func (m *Manager) UserInfo() *UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.UserInfo
}

// LoggedIn reports whether an access token is present.
func (m *Manager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.LoggedIn()
}

// SetSession replaces the session. The access token's claims are re-derived,
// tolerating decode failure, and the record is written to the store before the
// in-memory state becomes visible to subsequent reads.
func (m *Manager) SetSession(s Session) error {
	s.UserInfo = nil
	if s.AccessToken != "" {
		info, err := DecodeUserInfo(s.AccessToken)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to decode access token")
		} else {
			s.UserInfo = info
		}
	}

	if err := m.store.Set(&s); err != nil {
		return errors.Wrap(err, "[Manager.SetSession] store.Set")
	}

	m.mu.Lock()
	m.session = s
	if s.LoggedIn() {
		m.lastActivity = m.now()
		m.active = true
		m.startMonitorLocked()
	} else {
		m.active = false
		m.stopMonitorLocked()
	}
	m.mu.Unlock()
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. At most one network call is outstanding at any time: callers that
// arrive while a refresh is in flight wait for, and share, its outcome.
//
// A rejected refresh token (or a missing one) destroys the session. Transient
// failures leave the session intact for a later retry.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.refreshing {
		ch := make(chan refreshOutcome, 1)
		m.waiters = append(m.waiters, ch)
		m.mu.Unlock()
		select {
		case outcome := <-ch:
			return outcome.token, outcome.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	refreshToken := m.session.RefreshToken
	if refreshToken == "" {
		m.mu.Unlock()
		if err := m.Logout(); err != nil {
			m.log.Error().Err(err).Msg("logout after missing refresh token failed")
		}
		return "", ErrNoRefreshToken
	}
	m.refreshing = true
	m.mu.Unlock()

	outcome := m.doRefresh(ctx, refreshToken)

	m.mu.Lock()
	waiters := m.waiters
	m.waiters = nil
	m.refreshing = false
	m.mu.Unlock()

	for _, ch := range waiters {
		ch <- outcome
	}
	return outcome.token, outcome.err
}

func (m *Manager) doRefresh(ctx context.Context, refreshToken string) refreshOutcome {
	access, err := m.refresher.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
		if err := m.SetSession(Session{AccessToken: access, RefreshToken: refreshToken}); err != nil {
			return refreshOutcome{err: err}
		}
		return refreshOutcome{token: access}
	case errors.Is(err, ErrRefreshRejected):
		// The refresh token itself was rejected by the issuer. Authentication
		// failure, not infrastructure failure: destroy the session.
		if logoutErr := m.Logout(); logoutErr != nil {
			m.log.Error().Err(logoutErr).Msg("logout after rejected refresh failed")
		}
		return refreshOutcome{err: err}
	default:
		return refreshOutcome{err: errors.WithMessage(ErrRefreshUnavailable, err.Error())}
	}
}

// Logout clears the session, removes the persisted record and invokes the
// redirect hook. Idempotent beyond the redirect.
func (m *Manager) Logout() error {
	m.mu.Lock()
	wasLoggedIn := m.session.LoggedIn()
	m.mu.Unlock()

	// Storage transitions before the in-memory state becomes visible.
	if wasLoggedIn {
		if err := m.store.Remove(); err != nil {
			return errors.Wrap(err, "[Manager.Logout] store.Remove")
		}
	}

	m.mu.Lock()
	m.session = Session{}
	m.active = false
	m.stopMonitorLocked()
	m.mu.Unlock()

	if m.hooks.RedirectToLogin != nil {
		m.hooks.RedirectToLogin()
	}
	return nil
}

// RecordActivity resets the idle clock. Pointer movement is throttled; every
// other signal resets immediately. Ignored while logged out.
func (m *Manager) RecordActivity(kind ActivityKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.session.LoggedIn() {
		return
	}
	if kind == ActivityPointerMove && !m.moveLimiter.Allow() {
		return
	}
	m.lastActivity = m.now()
	m.active = true
}

// IdleFor returns the time elapsed since the last recorded activity.
func (m *Manager) IdleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastActivity)
}

// IsActive reports whether the session is considered active (logged in and
// not marked idle).
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Dispose tears down timers and background work. The manager can be
// re-initialized afterwards.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.stopMonitorLocked()
	m.mu.Unlock()
}

// startMonitorLocked arms the idle-detection timer and the proactive-refresh
// ticker. Callers hold m.mu. No-op when the monitor is already running.
func (m *Manager) startMonitorLocked() {
	if m.stopMonitor != nil {
		return
	}
	stop := make(chan struct{})
	m.stopMonitor = stop
	go m.runMonitor(stop)
}

// stopMonitorLocked stops the monitor goroutine. Callers hold m.mu. Safe to
// call from the monitor goroutine itself.
func (m *Manager) stopMonitorLocked() {
	if m.stopMonitor == nil {
		return
	}
	close(m.stopMonitor)
	m.stopMonitor = nil
}

func (m *Manager) runMonitor(stop chan struct{}) {
	idle := time.NewTimer(m.cfg.IdleTimeout)
	defer idle.Stop()
	proactive := time.NewTicker(m.cfg.RefreshInterval)
	defer proactive.Stop()

	for {
		select {
		case <-stop:
			return
		case <-proactive.C:
			// Keeps the access token fresh during continuous use even with no
			// user-visible activity. Coalescing makes a collision with the
			// idle-prompt refresh harmless.
			if _, err := m.RefreshAccessToken(context.Background()); err != nil {
				m.log.Warn().Err(err).Msg("proactive token refresh failed")
			}
		case <-idle.C:
			idleFor := m.IdleFor()
			if idleFor < m.cfg.IdleTimeout {
				// Activity arrived since the timer was armed; re-arm for the
				// remainder of the window.
				idle.Reset(m.cfg.IdleTimeout - idleFor)
				continue
			}
			if !m.handleIdle(idleFor) {
				return
			}
			idle.Reset(m.cfg.IdleTimeout)
		}
	}
}

// handleIdle marks the session inactive and asks the user whether to stay
// logged in. Returns false when the session ended and monitoring must stop.
func (m *Manager) handleIdle(idleFor time.Duration) bool {
	m.mu.Lock()
	m.active = false
	prompt := m.hooks.PromptStayLoggedIn
	m.mu.Unlock()

	stay := prompt != nil && prompt(idleFor)
	if !stay {
		if err := m.Logout(); err != nil {
			m.log.Error().Err(err).Msg("idle logout failed")
		}
		return false
	}

	m.mu.Lock()
	m.lastActivity = m.now()
	m.active = true
	m.mu.Unlock()

	if _, err := m.RefreshAccessToken(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("refresh after idle prompt failed")
		return m.LoggedIn()
	}
	return true
}
