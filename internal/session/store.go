// Package session holds the single source of truth for "who, if anyone, is
// logged in" to the console. One store exists per process; the identity
// fields are persisted so a restart resumes the session, everything else
// resets.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bartrekker/admin-api/internal/auth"
)

// Gateway is the slice of the auth gateway the store depends on
type Gateway interface {
	Logout(ctx context.Context) error
	OnIdentityChanged(cb func(*auth.Identity)) (unsubscribe func())
}

// State is a snapshot of the session fields
type State struct {
	User            *auth.Identity `json:"user"`
	IsAuthenticated bool           `json:"is_authenticated"`
	SessionExpired  bool           `json:"session_expired"`
	IsLoading       bool           `json:"is_loading"`
}

// Store is the process-wide session record. Mutations go through the
// methods below; reads get value snapshots. The mutex protects field
// integrity only: concurrent in-flight operations are not ordered, so a
// stale identity notification racing a fresh login resolves last-write-wins.
type Store struct {
	mu    sync.Mutex
	state State

	lastActivity time.Time

	gateway Gateway
	persist Persistence
	log     zerolog.Logger
}

// NewStore creates the session store, seeding the identity fields from the
// persisted record if one exists. sessionExpired and isLoading always start
// at their defaults, never from persistence.
func NewStore(ctx context.Context, gw Gateway, persist Persistence, log zerolog.Logger) *Store {
	s := &Store{
		gateway: gw,
		persist: persist,
		log:     log,
	}

	rec, err := persist.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load persisted session, starting unauthenticated")
		return s
	}
	if rec != nil {
		s.state.User = rec.User
		// Self-correct a divergent persisted record: authentication follows
		// strictly from user presence.
		s.state.IsAuthenticated = rec.User != nil
		if s.state.IsAuthenticated {
			s.lastActivity = time.Now()
		}
	}
	return s
}

// Login unconditionally overwrites the session with the given identity and
// clears any expiry flag.
func (s *Store) Login(ctx context.Context, user *auth.Identity) {
	s.mu.Lock()
	s.state = State{
		User:            user,
		IsAuthenticated: true,
	}
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.save(ctx)
}

// Logout signs out at the gateway and transitions to Unauthenticated. A
// gateway failure is logged, never propagated: the local transition and the
// removal of the persisted record happen regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		expired := s.state.SessionExpired
		s.state = State{SessionExpired: expired}
		s.mu.Unlock()

		if err := s.persist.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to clear persisted session")
		}
	}()

	if err := s.gateway.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("Gateway logout failed, clearing session anyway")
	}
}

// SetSessionExpired sets the expiry flag. It deliberately does not clear
// the user: callers forcing a logout must call Logout as well.
func (s *Store) SetSessionExpired(expired bool) {
	s.mu.Lock()
	s.state.SessionExpired = expired
	s.mu.Unlock()
}

// CheckAuth recomputes isAuthenticated strictly from user presence
func (s *Store) CheckAuth() {
	s.mu.Lock()
	s.state.IsAuthenticated = s.state.User != nil
	s.mu.Unlock()
}

// Initialize subscribes the store to identity-change notifications via the
// gateway and marks the store as loading until the first notification
// arrives. Call it exactly once per process: the subscription is not
// deduplicated, and no timeout guards the handshake. The returned
// unsubscribe must be invoked on teardown.
func (s *Store) Initialize(ctx context.Context) func() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.mu.Unlock()

	return s.gateway.OnIdentityChanged(func(user *auth.Identity) {
		s.mu.Lock()
		s.state = State{
			User:            user,
			IsAuthenticated: user != nil,
		}
		if user != nil {
			s.lastActivity = time.Now()
		}
		s.mu.Unlock()

		s.save(ctx)
	})
}

// State returns a snapshot of the session fields
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the authenticated identity, or nil
func (s *Store) User() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User
}

// IsAuthenticated reports whether an administrator is logged in
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// SessionExpired reports whether the session has been marked expired
func (s *Store) SessionExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionExpired
}

// Touch records authenticated activity for the idle-expiry sweeper
func (s *Store) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// IdleFor reports how long the session has been without activity
func (s *Store) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastActivity.IsZero() {
		return 0
	}
	return time.Since(s.lastActivity)
}

// save persists the durable slice of the current state
func (s *Store) save(ctx context.Context) {
	s.mu.Lock()
	rec := Record{
		User:            s.state.User,
		IsAuthenticated: s.state.IsAuthenticated,
	}
	s.mu.Unlock()

	if err := s.persist.Save(ctx, rec); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist session record")
	}
}
