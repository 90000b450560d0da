// Package auth issues and verifies the signed session credentials (JWTs) of
// logged-in users. Tokens are accepted from the Authorization header, with or
// without a "Bearer " prefix, or from the auth cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/newsaggr/internal/logger"
	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

// ErrInvalidToken is returned for missing, malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool)
}

// Auth handles token issuing and the authentication middleware.
type Auth struct {
	// db is used to check that the token owner still exists.
	db userKeeper

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// signingSecretKey is the HMAC key used to sign JWTs.
	signingSecretKey []byte

	tokenLifetime time.Duration

	clock func() time.Time
}

// Claims represents the JWT claims used by the system.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key of the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// New creates an Auth handler.
func New(
	db userKeeper,
	authCookieName string,
	signingSecretKey []byte,
	tokenLifetime time.Duration,
) *Auth {
	return &Auth{
		db:               db,
		authCookieName:   authCookieName,
		signingSecretKey: signingSecretKey,
		tokenLifetime:    tokenLifetime,
		clock:            time.Now,
	}
}

// UserIDFromContext returns the ID stored by AuthenticateUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// IssueToken signs a token for userID and returns it with its expiry time.
func (a *Auth) IssueToken(userID string) (string, time.Time, error) {
	now := a.clock()
	expiresAt := now.Add(a.tokenLifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// SetAuthCookie stores a token issued by IssueToken in the response cookie.
func (a *Auth) SetAuthCookie(response http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(response, &http.Cookie{
		Name:     a.authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserIDFromToken validates tokenString and returns the user ID it carries.
func (a *Auth) UserIDFromToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// AuthenticateUser rejects requests without a valid token of an existing user
// with 401 and stores the user ID in the request context otherwise.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.UserIDFromToken(a.getTokenStringFromAuthorizationHeaderOrCookie(request))
		if err != nil {
			logger.Log.Debugw("rejecting request without valid token", zap.Error(err))
			http.Error(response, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		if _, ok := a.db.GetUserByID(request.Context(), userID); !ok {
			logger.Log.Debugw("rejecting token of unknown user", "user_id", userID)
			http.Error(response, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	header := strings.TrimSpace(request.Header.Get("Authorization"))
	if header != "" {
		if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
			return strings.TrimSpace(header[len("Bearer "):])
		}
		return header
	}

	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}
