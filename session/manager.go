package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/rs/zerolog/log"
)

// State is the session lifecycle state.
type State int

const (
	StateUnknown State = iota
	StateAuthenticating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Authenticator is the slice of the authentication service the manager
// depends on.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Credentials, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (auth.User, error)
}

// LogoutRegistrar lets the manager hook itself into the transport
// layer's 401 interception without the transport importing this
// package.
type LogoutRegistrar interface {
	SetLogoutHandler(fn func())
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State State
	User  *auth.User
}

// Loading reports whether the session is still resolving.
func (s Snapshot) Loading() bool {
	return s.State == StateUnknown || s.State == StateAuthenticating
}

// Manager owns the session lifecycle: it drives the token store,
// resolves the user identity, and acts as the logout callback for both
// the transport's 401 interception and the store's expiry timer.
type Manager struct {
	store *Store
	auth  Authenticator

	mu    sync.Mutex
	state State
	user  *auth.User

	loggingOut atomic.Bool
}

// NewManager wires the session manager into the transport exactly once,
// at construction.
func NewManager(store *Store, authn Authenticator, transport LogoutRegistrar) *Manager {
	m := &Manager{
		store: store,
		auth:  authn,
		state: StateUnknown,
	}
	transport.SetLogoutHandler(func() {
		m.Logout(context.Background())
	})
	return m
}

// Snapshot returns the current session state and user.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, User: m.user}
}

// Restore resolves the session at startup: with no token the session
// is immediately anonymous; with one, the identity is fetched and a
// failure tears the session down.
func (m *Manager) Restore(ctx context.Context) {
	if _, ok := m.store.Token(); !ok {
		m.setState(StateAnonymous, nil)
		return
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("session restore failed")
		m.Logout(ctx)
		return
	}
	m.setState(StateAuthenticated, &user)
}

// Login authenticates, stores the token with its expiry wired to
// Logout, and resolves the identity. Any failure along the way leaves
// the session anonymous and is returned to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.setState(StateAuthenticating, nil)

	creds, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.setState(StateAnonymous, nil)
		return err
	}

	m.store.SetToken(creds.Token, creds.ExpiresIn, m.expire)

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.Logout(ctx)
		return err
	}

	m.setState(StateAuthenticated, &user)
	log.Debug().Str("role", string(user.Role)).Dur("expires_in", creds.ExpiresIn).Msg("session established")
	return nil
}

// Logout tears the session down. The backend invalidation is
// best-effort: the local session is cleared even when the call fails.
// Reentrant and idempotent, so it can serve as the 401 handler and as
// the expiry callback.
func (m *Manager) Logout(ctx context.Context) {
	// A 401 on the logout request itself re-enters here through the
	// transport's logout handler; the guard makes that a no-op.
	if !m.loggingOut.CompareAndSwap(false, true) {
		return
	}
	defer m.loggingOut.Store(false)

	if _, ok := m.store.Token(); ok {
		if err := m.auth.Logout(ctx); err != nil {
			log.Debug().Err(err).Msg("server-side logout failed, clearing local session anyway")
		}
	}

	m.store.Clear()
	m.setState(StateAnonymous, nil)
}

func (m *Manager) expire() {
	log.Debug().Msg("token expired")
	m.Logout(context.Background())
}

func (m *Manager) setState(state State, user *auth.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.user = user
}
