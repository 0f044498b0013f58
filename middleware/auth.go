package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/callable"
)

type contextKey string

const UserIDKey contextKey = "userID"

const AppCheckHeader = "X-Firebase-AppCheck"

type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (string, error)
}

type AppCheckTokenVerifier interface {
	VerifyAppCheckToken(ctx context.Context, token string) error
}

// CallableAuth gates the callable functions: the App Check token first,
// then the caller identity.
type CallableAuth struct {
	appCheck AppCheckTokenVerifier
	verifier IDTokenVerifier
	enforced bool
	log      *logrus.Entry
}

// NewCallableAuth builds the gate. A nil appCheck skips attestation; when
// enforced is set, requests without an App Check token are rejected.
func NewCallableAuth(appCheck AppCheckTokenVerifier, verifier IDTokenVerifier, enforced bool, log *logrus.Entry) *CallableAuth {
	return &CallableAuth{appCheck: appCheck, verifier: verifier, enforced: enforced, log: log}
}

func (a *CallableAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.log.WithField("path", r.URL.Path)

		if token := r.Header.Get(AppCheckHeader); token != "" {
			if a.appCheck != nil {
				if err := a.appCheck.VerifyAppCheckToken(r.Context(), token); err != nil {
					log.WithError(err).Warn("App Check token rejected")
					rejectAuth(w, "app_check_invalid", apperr.New(apperr.Unauthenticated,
						"The function must be called from an App Check verified app."))
					return
				}
			}
		} else if a.enforced {
			rejectAuth(w, "app_check_missing", apperr.New(apperr.Unauthenticated,
				"The function must be called from an App Check verified app."))
			return
		} else {
			log.Debug("App Check token missing")
		}

		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || token == authHeader || token == "" {
			rejectAuth(w, "auth_missing", apperr.New(apperr.FailedPrecondition,
				"The function must be called while authenticated."))
			return
		}

		userID, err := a.verifier.VerifyIDToken(r.Context(), token)
		if err != nil || userID == "" {
			log.WithError(err).Warn("Identity token rejected")
			rejectAuth(w, "auth_invalid", apperr.New(apperr.Unauthenticated,
				"The function must be called by an identified user."))
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rejectAuth(w http.ResponseWriter, reason string, err error) {
	authRejections.WithLabelValues(reason).Inc()
	callable.WriteError(w, err)
}

// GetUserID extracts the authenticated caller id from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID stores userID the way CallableAuth does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
