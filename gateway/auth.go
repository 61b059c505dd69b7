package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type callerKey struct{}

var errNoCaller = errors.New("gateway: no authenticated caller")

// Authenticator verifies bearer tokens and resolves the caller identity the
// settlement core compares against stored owner and authority fields. The
// token subject is the caller's hex address; the gateway does not verify
// wallet signatures itself.
type Authenticator struct {
	secret []byte
	leeway time.Duration
}

// NewAuthenticator creates an authenticator with the given HMAC secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret, leeway: 30 * time.Second}
}

// Middleware rejects requests without a valid bearer token and stores the
// caller address in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.secret, nil
		}, jwt.WithLeeway(a.leeway), jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		caller, err := parseAddress(claims.Subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom extracts the authenticated caller from the request context.
func callerFrom(ctx context.Context) ([20]byte, error) {
	caller, ok := ctx.Value(callerKey{}).([20]byte)
	if !ok {
		return [20]byte{}, errNoCaller
	}
	return caller, nil
}
