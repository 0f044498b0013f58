package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/callable"
	"wizzAPI/internal/types/authevent"
	"wizzAPI/services"
)

const (
	AuthHookSignatureHeader = "X-Auth-Hook-Signature"

	maxWebhookBytes  = int64(65536)
	svixTolerance    = 5 * time.Minute
	deleteUserBudget = 2 * time.Minute
)

// WebhookHandler receives the account lifecycle events of the identity
// providers.
type WebhookHandler struct {
	userService *services.UserService
	hookSecret  string
	clerkSecret string
	log         *logrus.Entry
	now         func() time.Time
	detach      func(func())
	inflight    sync.WaitGroup
}

func NewWebhookHandler(userService *services.UserService, hookSecret, clerkSecret string, log *logrus.Entry) *WebhookHandler {
	h := &WebhookHandler{
		userService: userService,
		hookSecret:  hookSecret,
		clerkSecret: clerkSecret,
		log:         log,
		now:         time.Now,
	}
	h.detach = h.track
	return h
}

func (h *WebhookHandler) track(f func()) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		f()
	}()
}

// Wait blocks until every detached user deletion has returned or ctx ends.
func (h *WebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleAuthHook processes a Firebase auth event signed with the shared
// hook secret.
func (h *WebhookHandler) HandleAuthHook(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, h.hookSecret, "AUTH_HOOK_SECRET") {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if !h.verifyHookSignature(r, body) {
		h.log.Warn("Invalid auth hook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event authevent.Event
	if err := json.Unmarshal(body, &event); err != nil {
		callable.WriteError(w, apperr.Wrap(err, apperr.InvalidArgument, "Error parsing auth event."))
		return
	}
	var u authevent.FirebaseUser
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &u); err != nil {
			callable.WriteError(w, apperr.Wrap(err, apperr.InvalidArgument, "Error parsing auth event data."))
			return
		}
	}

	h.dispatch(w, r, event.Type, u.UID, u.PhoneNumber)
}

// HandleClerkWebhook processes a svix-signed Clerk event.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, h.clerkSecret, "CLERK_WEBHOOK_SECRET") {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if !h.verifyWebhookSignature(r, body) {
		h.log.Warn("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event authevent.Event
	if err := json.Unmarshal(body, &event); err != nil {
		callable.WriteError(w, apperr.Wrap(err, apperr.InvalidArgument, "Error parsing webhook."))
		return
	}
	var u authevent.ClerkUser
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &u); err != nil {
			callable.WriteError(w, apperr.Wrap(err, apperr.InvalidArgument, "Error parsing webhook data."))
			return
		}
	}

	h.dispatch(w, r, event.Type, u.ID, u.PrimaryPhone())
}

// configured refuses the event when no signing secret is set, so an
// unsigned request can never create or delete an account.
func (h *WebhookHandler) configured(w http.ResponseWriter, secret, name string) bool {
	if secret != "" {
		return true
	}
	h.log.Error(name + " not set, refusing unsigned auth event")
	http.Error(w, "Webhook not configured", http.StatusServiceUnavailable)
	return false
}

func (h *WebhookHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.log.WithError(err).Warn("Error reading webhook body")
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (h *WebhookHandler) dispatch(w http.ResponseWriter, r *http.Request, eventType, userID, phoneNumber string) {
	log := h.log.WithFields(logrus.Fields{"event": eventType, "user_id": userID})
	log.Info("Received auth event")

	switch eventType {
	case authevent.UserCreated:
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		if err := h.userService.CreateUser(ctx, userID, phoneNumber); err != nil {
			callable.WriteError(w, err)
			return
		}

	case authevent.UserDeleted:
		if userID == "" {
			callable.WriteError(w, apperr.New(apperr.InvalidArgument, "The user identifier is missing."))
			return
		}
		// The provider is not told about the outcome; failures only reach the logs.
		ctx := context.WithoutCancel(r.Context())
		h.detach(func() {
			ctx, cancel := context.WithTimeout(ctx, deleteUserBudget)
			defer cancel()
			if err := h.userService.DeleteUser(ctx, userID); err != nil {
				log.WithError(err).Error("Deleting user failed")
			}
		})

	default:
		log.Info("Unhandled auth event type")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success": true}`))
}

// verifyHookSignature checks a hex HMAC-SHA256 of the body, optionally
// prefixed with "sha256=".
func (h *WebhookHandler) verifyHookSignature(r *http.Request, body []byte) bool {
	provided := strings.TrimPrefix(r.Header.Get(AuthHookSignatureHeader), "sha256=")
	got, err := hex.DecodeString(provided)
	if err != nil || len(got) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.hookSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// verifyWebhookSignature checks the svix headers Clerk sends: a base64
// HMAC-SHA256 of "id.timestamp.body" keyed with the decoded whsec_ secret.
func (h *WebhookHandler) verifyWebhookSignature(r *http.Request, body []byte) bool {
	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		h.log.Warn("Missing webhook signature headers")
		return false
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return false
	}
	if d := h.now().Sub(time.Unix(ts, 0)); d > svixTolerance || d < -svixTolerance {
		h.log.WithField("svix_timestamp", ts).Warn("Webhook timestamp outside tolerance")
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.clerkSecret, "whsec_"))
	if err != nil {
		h.log.WithError(err).Error("CLERK_WEBHOOK_SECRET is not valid base64")
		return false
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", svixID, svixTimestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(svixSignature) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return true
		}
	}
	return false
}
