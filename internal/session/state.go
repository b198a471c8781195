package session

// State is the session's position in the login lifecycle.
type State int

const (
	// Anonymous: no token stored.
	Anonymous State = iota
	// Authenticated: a token is stored but no protected request has
	// succeeded with it yet.
	Authenticated
	// Verified: a protected request succeeded with the stored token during
	// this run.
	Verified
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Verified:
		return "verified"
	}
	return "unknown"
}
