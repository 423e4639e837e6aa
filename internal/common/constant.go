package common

// AuthorizationHeaderName carries the bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// DefaultOperatorUsername and DefaultOperatorPassword seed the operator record
// of a freshly created store. The password must be changed after first login.
const (
	DefaultOperatorUsername = "admin"
	DefaultOperatorPassword = "admin"
)
