package session

import (
	"context"

	"github.com/bartrekker/admin-api/internal/auth"
)

// Record is the slice of session state that survives restarts. Only the
// identity fields are durable; sessionExpired and isLoading always reset to
// their defaults on a fresh load.
type Record struct {
	User            *auth.Identity `json:"user"`
	IsAuthenticated bool           `json:"is_authenticated"`
}

// Persistence stores the single session record under one fixed key.
// Load returns (nil, nil) when no record exists.
type Persistence interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}
