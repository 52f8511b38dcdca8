package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/securechat/msgr/internal/api"
	"github.com/securechat/msgr/internal/bus"
	"go.uber.org/zap"
)

// ErrNoToken is returned when the backend accepted a login or registration
// but its response carried no recognized token field.
var ErrNoToken = errors.New("no token in auth response")

// AuthAPI is the slice of the backend the controller needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, email, password, displayName string) (api.AuthResult, error)
	Me(ctx context.Context, token string) (*api.User, error)
}

// Controller owns the in-memory auth state and keeps it converged with the
// persisted store. It is handed by reference to whoever needs auth state;
// there is no ambient singleton. Session snapshots are published on the bus
// as session.changed events.
type Controller struct {
	mu      sync.RWMutex
	store   *Store
	auth    AuthAPI
	machine *machine
	bus     *bus.Bus
	logger  *zap.Logger

	token string
	user  *api.User
}

// NewController creates a controller in the Bootstrapping state.
func NewController(store *Store, auth AuthAPI, b *bus.Bus, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:   store,
		auth:    auth,
		machine: newMachine(b),
		bus:     b,
		logger:  logger,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.machine.Current() }

// IsAuthenticated reports whether a token is currently held.
func (c *Controller) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Token returns the current bearer token ("" when unauthenticated).
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the current user profile, possibly nil.
func (c *Controller) User() *api.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Current returns a snapshot of the session.
func (c *Controller) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Session{Token: c.token, User: c.user}
}

// Bootstrap reconciles the persisted session with the backend. With no
// stored token it lands in Unauthenticated. With one, it asks /auth/me:
// success adopts the returned profile (or keeps the stored one when the
// response is empty); any failure keeps the stored session as-is, because
// an unreachable or unimplemented identity endpoint must not force a login
// prompt. Bootstrap always leaves the Bootstrapping state.
func (c *Controller) Bootstrap(ctx context.Context) {
	sess := c.store.Load()
	if sess.Token == "" {
		_ = c.machine.Transition(Unauthenticated)
		return
	}

	user := sess.User
	me, err := c.auth.Me(ctx, sess.Token)
	switch {
	case err != nil:
		c.logger.Info("identity check failed, keeping stored session", zap.Error(err))
	case me != nil:
		user = me
	}

	c.setSession(sess.Token, user)
	_ = c.machine.Transition(Authenticated)
}

// Login exchanges credentials for a session. Returns ErrNoToken when the
// call succeeded but no token field was recognized. When the backend omits
// the user record, a minimal one is built from the submitted email.
func (c *Controller) Login(ctx context.Context, email, password string) (Session, error) {
	result, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if result.Token == "" {
		return Session{}, fmt.Errorf("login: %w", ErrNoToken)
	}
	user := result.User
	if user == nil {
		user = &api.User{Email: email}
	}

	c.setSession(result.Token, user)
	_ = c.machine.Transition(Authenticated)
	c.logger.Info("logged in", zap.String("email", email))
	return Session{Token: result.Token, User: user}, nil
}

// Register creates an account; contract identical to Login, with the display
// name included in the fallback user record.
func (c *Controller) Register(ctx context.Context, email, password, displayName string) (Session, error) {
	result, err := c.auth.Register(ctx, email, password, displayName)
	if err != nil {
		return Session{}, err
	}
	if result.Token == "" {
		return Session{}, fmt.Errorf("register: %w", ErrNoToken)
	}
	user := result.User
	if user == nil {
		user = &api.User{Email: email, DisplayName: displayName}
	}

	c.setSession(result.Token, user)
	_ = c.machine.Transition(Authenticated)
	c.logger.Info("registered", zap.String("email", email))
	return Session{Token: result.Token, User: user}, nil
}

// Logout clears the in-memory and persisted session synchronously.
// Idempotent.
func (c *Controller) Logout() {
	c.setSession("", nil)
	_ = c.machine.Transition(Unauthenticated)
	c.logger.Info("logged out")
}

// setSession updates memory, converges storage, and publishes the snapshot.
func (c *Controller) setSession(token string, user *api.User) {
	c.mu.Lock()
	c.token = token
	c.user = user
	c.mu.Unlock()

	if token != "" {
		if err := c.store.Save(Session{Token: token, User: user}); err != nil {
			c.logger.Warn("persist session", zap.Error(err))
		}
	} else {
		c.store.Clear()
	}

	if c.bus != nil {
		c.bus.Publish(bus.Event{
			Kind:    bus.KindSessionChanged,
			Payload: Session{Token: token, User: user},
		})
	}
}
