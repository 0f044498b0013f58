package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"wizzAPI/handlers"
	"wizzAPI/internal/config"
	"wizzAPI/internal/logger"
	"wizzAPI/internal/store"
	"wizzAPI/middleware"
	"wizzAPI/services"
)

type routerDeps struct {
	cfg        *config.Config
	log        *logrus.Logger
	store      store.Store
	verifier   middleware.IDTokenVerifier
	appCheck   middleware.AppCheckTokenVerifier
	dispatcher *services.NotificationDispatcher
	limiter    *middleware.RateLimiter
}

// newRouter also returns the webhook handler so shutdown can wait for the
// user deletions it started.
func newRouter(d routerDeps) (*mux.Router, *handlers.WebhookHandler) {
	opts := services.Options{
		CascadeBatchSize:     d.cfg.CascadeBatchSize,
		ContactsChunkSize:    d.cfg.ContactsChunkSize,
		ExpansionConcurrency: d.cfg.ExpansionConcurrency,
	}

	userService := services.NewUserService(d.store, opts, logger.Component(d.log, "users"))
	friendService := services.NewFriendService(d.store, opts, logger.Component(d.log, "friends"))
	invitationService := services.NewInvitationService(d.store, opts, logger.Component(d.log, "invitations"))

	var push services.PushDispatcher
	if d.dispatcher != nil {
		push = d.dispatcher
	}
	wizzService := services.NewWizzService(d.store, friendService, push, opts, logger.Component(d.log, "wizz"))

	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	wizzHandler := handlers.NewWizzHandler(wizzService)
	webhookHandler := handlers.NewWebhookHandler(userService, d.cfg.AuthHookSecret, d.cfg.ClerkWebhookSecret,
		logger.Component(d.log, "webhooks"))

	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(logger.Component(d.log, "http")))
	r.Use(middleware.MonitorMiddleware)
	if d.limiter != nil {
		r.Use(d.limiter.Middleware)
	}

	r.Handle("/metrics", middleware.BasicAuthMiddleware(d.cfg.MetricsUser, d.cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(d.cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := d.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status": "unhealthy", "error": "store unreachable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy", "service": "wizz-api"}`))
	}).Methods("GET")

	r.HandleFunc("/hooks/auth", webhookHandler.HandleAuthHook).Methods("POST")
	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// CALLABLE FUNCTIONS (APP CHECK + AUTH)
	// -------------------------------------------------------------------------
	auth := middleware.NewCallableAuth(d.appCheck, d.verifier, d.cfg.AppCheckEnforced, logger.Component(d.log, "auth"))
	callables := r.PathPrefix("/").Subrouter()
	callables.Use(auth.Middleware)

	callables.HandleFunc("/getUsername", userHandler.GetUsername).Methods("POST")
	callables.HandleFunc("/updateUsername", userHandler.UpdateUsername).Methods("POST")
	callables.HandleFunc("/getUsersFromContacts", userHandler.GetUsersFromContacts).Methods("POST")
	callables.HandleFunc("/registerDeviceToken", userHandler.RegisterDeviceToken).Methods("POST")

	callables.HandleFunc("/getFriends", friendHandler.GetFriends).Methods("POST")
	callables.HandleFunc("/deleteFriendship", friendHandler.DeleteFriendship).Methods("POST")

	callables.HandleFunc("/getUsersInvited", invitationHandler.GetUsersInvited).Methods("POST")
	callables.HandleFunc("/getUsersInvitedMe", invitationHandler.GetUsersInvitedMe).Methods("POST")
	callables.HandleFunc("/sendInvitation", invitationHandler.SendInvitation).Methods("POST")
	callables.HandleFunc("/withdrawInvitation", invitationHandler.WithdrawInvitation).Methods("POST")
	callables.HandleFunc("/acceptInvitation", invitationHandler.AcceptInvitation).Methods("POST")
	callables.HandleFunc("/refuseInvitation", invitationHandler.RefuseInvitation).Methods("POST")

	callables.HandleFunc("/wizz", wizzHandler.Wizz).Methods("POST")
	callables.HandleFunc("/getWizzesReceived", wizzHandler.GetWizzesReceived).Methods("POST")

	return r, webhookHandler
}
