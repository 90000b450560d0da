// Package authenticator declares what the router needs from the auth layer,
// so handlers can be tested with a stub instead of real tokens.
package authenticator

import (
	"net/http"
	"time"
)

type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	IssueToken(userID string) (string, time.Time, error)
	SetAuthCookie(response http.ResponseWriter, token string, expiresAt time.Time)
}
