package session

// Route names a navigable screen.
type Route string

const (
	RouteSignup    Route = "signup"
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteUpload    Route = "upload"
)

// RouteRoot is where navigation starts for a visitor without a session.
const RouteRoot = RouteSignup

// Protected reports whether r requires a session token.
func (r Route) Protected() bool {
	return r == RouteDashboard || r == RouteUpload
}
