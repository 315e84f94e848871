package middleware

import (
	"context"
	"net/http"

	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
)

// SessionChecker reports whether a user is signed in.
type SessionChecker func(ctx context.Context) bool

// RequireSession rejects requests made without a signed-in user with a
// LOGIN_REQUIRED error carrying the login redirect. No backend call is made.
func RequireSession(authenticated SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r.Context()) {
				httputil.WriteError(w, r, apperrors.LoginRequired("please log in to continue"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
