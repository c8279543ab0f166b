// Package auth holds the gateway between the console and the identity
// provider, the administrator identity it produces, and the JWT helpers for
// the console's own bearer tokens.
package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bartrekker/admin-api/internal/analytics"
	"github.com/bartrekker/admin-api/internal/config"
	"github.com/bartrekker/admin-api/internal/identity"
)

// Gateway is the sole boundary to the identity provider. It enforces the
// single-administrator rule, translates provider error codes into the
// user-facing message catalog, and emits analytics side effects.
type Gateway struct {
	provider  identity.Provider
	admin     config.AdminConfig
	analytics analytics.Emitter
	messages  Messages
	log       zerolog.Logger
}

// NewGateway creates an auth gateway over the given provider
func NewGateway(provider identity.Provider, admin config.AdminConfig, emitter analytics.Emitter, messages Messages, log zerolog.Logger) *Gateway {
	return &Gateway{
		provider:  provider,
		admin:     admin,
		analytics: emitter,
		messages:  messages,
		log:       log,
	}
}

// LoginResult is the outcome of a credential check
type LoginResult struct {
	Success bool      `json:"success"`
	User    *Identity `json:"user,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// CreateResult is the outcome of the admin bootstrap
type CreateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login validates the credential pair and signs the administrator in.
// Anything other than the exact configured pair is rejected locally with a
// deliberately non-specific message, without contacting the provider.
func (g *Gateway) Login(ctx context.Context, email, password string) LoginResult {
	if email != g.admin.Email || password != g.admin.Password {
		return LoginResult{Error: g.messages.InvalidCredentials}
	}

	principal, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		code := identity.CodeOf(err)
		g.log.Warn().Err(err).Str("code", string(code)).Msg("Admin login failed")
		g.analytics.AuthError(string(code))
		return LoginResult{Error: g.messages.ForCode(code)}
	}

	user := g.adminIdentity(principal)
	g.analytics.AdminLogin()
	g.log.Info().Str("user_id", user.ID).Msg("Admin logged in")

	return LoginResult{Success: true, User: user}
}

// Logout signs the administrator out at the provider. Failures are logged
// and returned to the caller; the logout analytics event fires only on
// success.
func (g *Gateway) Logout(ctx context.Context) error {
	if err := g.provider.SignOut(ctx); err != nil {
		g.log.Error().Err(err).Msg("Provider sign-out failed")
		return err
	}
	g.analytics.AdminLogout()
	return nil
}

// AdminExists probes the provider with the configured credentials to find
// out whether the admin account has been created. Only a user-not-found
// answer means no; a successful probe signs straight back out, and any
// other provider failure is treated conservatively as "likely exists".
// This is a bootstrap utility, never an authorization check.
func (g *Gateway) AdminExists(ctx context.Context) bool {
	_, err := g.provider.SignIn(ctx, g.admin.Email, g.admin.Password)
	if err != nil {
		return identity.CodeOf(err) != identity.CodeUserNotFound
	}
	if err := g.provider.SignOut(ctx); err != nil {
		g.log.Warn().Err(err).Msg("Failed to sign out after existence probe")
	}
	return true
}

// CreateAdmin provisions the configured administrator account if it does
// not exist yet. Idempotent: an existing account is reported as success.
func (g *Gateway) CreateAdmin(ctx context.Context) CreateResult {
	if g.AdminExists(ctx) {
		return CreateResult{Success: true, Message: g.messages.AdminExists}
	}

	if _, err := g.provider.CreateAccount(ctx, g.admin.Email, g.admin.Password, g.admin.Name); err != nil {
		code := identity.CodeOf(err)
		g.log.Error().Err(err).Str("code", string(code)).Msg("Failed to create admin account")
		return CreateResult{Message: g.messages.ForCode(code)}
	}

	g.analytics.AdminCreated()
	g.log.Info().Str("email", g.admin.Email).Msg("Admin account created")
	return CreateResult{Success: true, Message: g.messages.AdminCreated}
}

// OnIdentityChanged subscribes cb to the provider's identity stream.
// Principals matching the configured administrator email are delivered as
// admin identities; everything else (including sign-out) is delivered as
// nil. The caller owns the returned unsubscribe and must call it exactly
// once during teardown.
func (g *Gateway) OnIdentityChanged(cb func(*Identity)) func() {
	return g.provider.OnIdentityChange(func(p *identity.Principal) {
		if p != nil && p.Email == g.admin.Email {
			cb(g.adminIdentity(p))
			return
		}
		cb(nil)
	})
}

// adminIdentity builds the administrator identity from a provider
// principal, falling back to the configured tuple for fields the provider
// omits.
func (g *Gateway) adminIdentity(p *identity.Principal) *Identity {
	id := &Identity{
		ID:      p.ID,
		Email:   p.Email,
		Name:    p.Name,
		IsAdmin: true,
	}
	if id.ID == "" {
		id.ID = g.admin.ID
	}
	if id.Email == "" {
		id.Email = g.admin.Email
	}
	if id.Name == "" {
		id.Name = g.admin.Name
	}
	return id
}
