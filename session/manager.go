package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arnaud-devs/hangart-sub000/domain"
	"github.com/arnaud-devs/hangart-sub000/gateway"
	"github.com/arnaud-devs/hangart-sub000/validator"
)

// Manager owns the sign-in lifecycle: authenticating, restoring a persisted
// session on startup, keeping the current user profile cached, and tearing
// everything down on sign-out.
type Manager struct {
	gw          *gateway.Gateway
	store       Store
	logger      *slog.Logger
	onSignedOut func()

	mu   sync.Mutex
	user *domain.User
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSignedOutHandler registers a hook invoked after every sign-out, both
// user-initiated and forced by an expired session. The embedding
// application uses it to navigate to the sign-in screen.
func WithSignedOutHandler(fn func()) ManagerOption {
	return func(m *Manager) { m.onSignedOut = fn }
}

// NewManager creates a session manager backed by the given gateway and store.
func NewManager(gw *gateway.Gateway, store Store, log *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{gw: gw, store: store, logger: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SignInInput is the credential pair for an existing account.
type SignInInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignUpInput registers a new buyer or artist account.
type SignUpInput struct {
	Username  string `json:"username" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=buyer artist"`
}

// authResponse is the token-bearing shape of the login endpoint. The signup
// endpoint may return the same shape or a bare user object.
type authResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *domain.User `json:"user"`
}

// SignIn authenticates with the marketplace and persists the granted
// credentials. Input is validated locally first.
func (m *Manager) SignIn(ctx context.Context, input SignInInput) (*domain.User, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	resp, err := m.gw.Post(ctx, "/auth/login/", gateway.WithBody(input))
	if err != nil {
		return nil, err
	}

	var auth authResponse
	if err := resp.Decode(&auth); err != nil {
		return nil, err
	}

	if err := m.adoptSession(ctx, auth); err != nil {
		return nil, err
	}

	user := auth.User
	if user == nil {
		// Some deployments return only the token pair from login.
		if user, err = m.FetchUser(ctx); err != nil {
			return nil, err
		}
	}

	m.logger.InfoContext(ctx, "signed in", slog.String("user_id", user.ID))
	return user, nil
}

// SignUp registers a new account. Deployments differ on whether
// registration signs the user in: some return tokens alongside the profile,
// others return the bare profile and expect a separate sign-in. The second
// return value reports whether a session was established.
func (m *Manager) SignUp(ctx context.Context, input SignUpInput) (*domain.User, bool, error) {
	if err := validator.Validate(input); err != nil {
		return nil, false, err
	}

	resp, err := m.gw.Post(ctx, "/auth/register/", gateway.WithBody(input))
	if err != nil {
		return nil, false, err
	}

	var auth authResponse
	if err := resp.Decode(&auth); err != nil {
		return nil, false, err
	}

	if auth.Access != "" {
		if err := m.adoptSession(ctx, auth); err != nil {
			return nil, false, err
		}
		user := auth.User
		if user == nil {
			if user, err = m.FetchUser(ctx); err != nil {
				return nil, false, err
			}
		}
		return user, true, nil
	}

	// Bare profile shape. Decode again as a plain user.
	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, false, err
	}
	return &user, false, nil
}

// adoptSession persists tokens and the user profile after a successful
// authentication response.
func (m *Manager) adoptSession(ctx context.Context, auth authResponse) error {
	if err := m.store.Set(ctx, KeyAccessToken, auth.Access); err != nil {
		return err
	}
	if err := m.store.Set(ctx, KeyRefreshToken, auth.Refresh); err != nil {
		return err
	}
	if auth.User != nil {
		if err := m.cacheUser(ctx, auth.User); err != nil {
			return err
		}
	}
	return nil
}

// Restore rebuilds the session from the persisted store at startup. It
// returns the cached user profile when one is stored, fetches the profile
// once when only tokens survived, and returns (nil, nil) when no session
// exists.
func (m *Manager) Restore(ctx context.Context) (*domain.User, error) {
	access, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, nil
	}

	if raw, err := m.store.Get(ctx, KeyUser); err == nil && raw != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			m.setUser(&user)
			return &user, nil
		}
		// Corrupt cached profile. Fall through and refetch.
		m.logger.WarnContext(ctx, "cached user profile unreadable, refetching")
	}

	return m.FetchUser(ctx)
}

// FetchUser retrieves the current profile from the API and caches it.
func (m *Manager) FetchUser(ctx context.Context) (*domain.User, error) {
	resp, err := m.gw.Get(ctx, "/auth/me/")
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	if err := m.cacheUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserInput carries a partial profile update. Zero-valued fields are
// omitted from the request.
type UpdateUserInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateUser applies a partial profile update and refreshes the cache with
// the profile the server returns.
func (m *Manager) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	resp, err := m.gw.Patch(ctx, "/auth/me/", gateway.WithBody(input))
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	if err := m.cacheUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type changePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword changes the account password.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	input := changePasswordInput{OldPassword: oldPassword, NewPassword: newPassword}
	if err := validator.Validate(input); err != nil {
		return err
	}
	_, err := m.gw.Post(ctx, "/auth/change-password/", gateway.WithBody(input))
	return err
}

// SignOut tears the session down. The server-side logout is best effort;
// local state is always cleared and the signed-out hook always fires, so
// SignOut never returns an error.
func (m *Manager) SignOut(ctx context.Context) {
	if refresh, err := m.store.Get(ctx, KeyRefreshToken); err == nil && refresh != "" {
		_, err := m.gw.Post(ctx, "/auth/logout/",
			gateway.WithBody(map[string]string{"refresh": refresh}))
		if err != nil {
			m.logger.WarnContext(ctx, "server-side logout failed", slog.String("error", err.Error()))
		}
	}

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.logger.WarnContext(ctx, "session store remove failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	m.setUser(nil)

	m.logger.InfoContext(ctx, "signed out")
	if m.onSignedOut != nil {
		m.onSignedOut()
	}
}

// Refresh forces a credential refresh and reports whether it succeeded.
func (m *Manager) Refresh(ctx context.Context) bool {
	return m.gw.Refresh(ctx)
}

// CurrentUser returns the cached user profile, or nil when signed out.
func (m *Manager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// AccessTokenExpiresWithin reports whether the stored access token expires
// inside the given window. The token is inspected without signature
// verification; the client holds no signing key and only needs the expiry
// claim. Unreadable tokens are reported as expiring, so callers refresh
// proactively.
func (m *Manager) AccessTokenExpiresWithin(ctx context.Context, window time.Duration) bool {
	access, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil || access == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) < window
}

func (m *Manager) cacheUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, KeyUser, string(data)); err != nil {
		return err
	}
	m.setUser(user)
	return nil
}

func (m *Manager) setUser(user *domain.User) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}
