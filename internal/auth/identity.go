package auth

// Identity is the authenticated administrator principal. It is only ever
// constructed by the gateway from a provider principal whose email matches
// the configured administrator, so IsAdmin is true for every value that
// exists.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}
