// Package client implements the browser-side half of the session handoff:
// promoting the transient cookie left by an OAuth callback into durable
// storage, and hydrating the in-memory session from a stored token.
package client

// TokenKey is the durable storage key the session token lives under.
const TokenKey = "token"

// CookieJar is the subset of cookie access the bridge needs. Implementations
// wrap whatever cookie surface the host environment exposes.
type CookieJar interface {
	// Get returns the named cookie's value and whether it was present.
	Get(name string) (string, bool)
	// Delete removes the named cookie. Deleting an absent cookie is a no-op.
	Delete(name string)
}

// Storage is a durable string key-value store, localStorage-shaped.
// Last write wins; no merge semantics.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// HydrateFunc is invoked with the promoted token so the host can populate
// its in-memory session state.
type HydrateFunc func(token string)

// Bridge migrates an OAuth handoff cookie into durable storage exactly once.
type Bridge struct {
	cookies    CookieJar
	storage    Storage
	cookieName string
	hydrate    HydrateFunc
}

// NewBridge returns a Bridge watching the given cookie name. hydrate may be
// nil when the host has no hydration step.
func NewBridge(cookies CookieJar, storage Storage, cookieName string, hydrate HydrateFunc) *Bridge {
	return &Bridge{
		cookies:    cookies,
		storage:    storage,
		cookieName: cookieName,
		hydrate:    hydrate,
	}
}

// Run performs the promotion and reports whether a handoff token was found.
// With no handoff cookie present it touches nothing, so running it again
// after a successful promotion is a safe no-op.
func (b *Bridge) Run() bool {
	tok, ok := b.cookies.Get(b.cookieName)
	if !ok || tok == "" {
		return false
	}
	b.storage.Set(TokenKey, tok)
	b.cookies.Delete(b.cookieName)
	if b.hydrate != nil {
		b.hydrate(tok)
	}
	return true
}
