package auth

// Principal is the identity resolved from a session cookie.
// The zero value is an anonymous visitor.
type Principal struct {
	SessionID string
	Username  string
	IsAdmin   bool
}
