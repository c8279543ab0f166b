// Package identity is the boundary to the identity provider backing the
// console. The provider owns credential verification and account creation;
// everything above it (the auth gateway, the session store) treats it as a
// black box that reports failures from a fixed code vocabulary and pushes
// identity-change notifications.
package identity

import "context"

// Principal is the provider's view of an authenticated account
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Provider is the external identity provider surface consumed by the auth
// gateway. Implementations must classify failures with identity.Error codes.
type Provider interface {
	// SignIn verifies the credential pair and returns the signed-in principal
	SignIn(ctx context.Context, email, password string) (*Principal, error)

	// SignOut ends the current provider session
	SignOut(ctx context.Context) error

	// CreateAccount provisions a new account and returns its principal
	CreateAccount(ctx context.Context, email, password, name string) (*Principal, error)

	// OnIdentityChange subscribes cb to the identity-change stream. The
	// current principal (possibly nil) is delivered asynchronously on
	// subscribe, then every sign-in/sign-out is delivered as it happens.
	// The returned function cancels the subscription; the caller owns its
	// lifetime and must call it exactly once during teardown.
	OnIdentityChange(cb func(*Principal)) (unsubscribe func())
}
