package session

// Package session holds the authentication material every remote call
// carries: the cookie set, the CSRF token, and the marketplace binding.
// A context is loaded once at startup and treated as read-only for the
// rest of the run; the only mutation points are the CSRF probe and the
// expiry detection surfaced by the catalog client.
