package handlers

import (
	"context"
	"net/http"
	"time"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/callable"
	"wizzAPI/middleware"
)

const requestTimeout = 10 * time.Second

// response is the {response: ...} object most callables return.
type response struct {
	Response any `json:"response"`
}

// callerContext bounds the request and returns the authenticated caller.
func callerContext(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, string, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		cancel()
		callable.WriteError(w, apperr.New(apperr.FailedPrecondition, "The function must be called while authenticated."))
		return nil, nil, "", false
	}
	return ctx, cancel, userID, true
}

// decode reads the callable data into dst, writing the error itself.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := callable.Decode(w, r, dst); err != nil {
		callable.WriteError(w, err)
		return false
	}
	return true
}
