package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/config"
	"wizzAPI/internal/firebaseapp"
	"wizzAPI/internal/identity"
	"wizzAPI/internal/logger"
	"wizzAPI/internal/notification"
	"wizzAPI/internal/store"
	firestorestore "wizzAPI/internal/store/firestore"
	"wizzAPI/internal/store/memstore"
	"wizzAPI/internal/store/postgres"
	"wizzAPI/middleware"
	"wizzAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, found, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if !found {
		log.Info("No .env file found")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.NeedsFirebase() {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var err error
		app, err = firebaseapp.New(initCtx, firebaseapp.Credentials{
			ProjectID:   cfg.FirebaseProjectID,
			EncodedJSON: cfg.FirebaseCredentialsJSON,
			File:        cfg.FirebaseCredentialsFile,
		}, logger.Component(log, "firebase"))
		if err != nil {
			return fmt.Errorf("init firebase: %w", err)
		}
	}

	st, err := openStore(ctx, cfg, app, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("Closing store failed")
		}
	}()

	verifier, appCheck, err := newVerifiers(ctx, cfg, app)
	if err != nil {
		return err
	}

	var dispatcher *services.NotificationDispatcher
	if cfg.PushEnabled && app != nil {
		client, err := app.Messaging(ctx)
		if err != nil {
			log.WithError(err).Warn("Could not initialize FCM, wizz pushes disabled")
		} else {
			fcm := notification.NewFCMService(client, logger.Component(log, "fcm"))
			dispatcher = services.NewNotificationDispatcher(fcm, cfg.PushWorkers, logger.Component(log, "dispatcher"))
			defer dispatcher.Stop()
			log.Info("FCM Push Provider initialized successfully")
		}
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer, append(cascade.Collectors(), services.Collectors()...)...)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxyHops)
	go limiter.CleanupVisitors(ctx)

	router, webhooks := newRouter(routerDeps{
		cfg:        cfg,
		log:        log,
		store:      st,
		verifier:   verifier,
		appCheck:   appCheck,
		dispatcher: dispatcher,
		limiter:    limiter,
	})

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.AppCheckHeader, "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", middleware.RequestIDHeader}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("Got shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}
	if err := webhooks.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("User deletions still running at shutdown")
	}

	log.Info("Server shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, app *firebase.App, log *logrus.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		st, err := postgres.Open(openCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info("Successfully connected to Postgres")
		return st, nil

	case config.StoreMemory:
		log.Warn("Using the in-memory store, data is lost on restart")
		return memstore.New(), nil

	default:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		log.Info("Successfully connected to Firestore")
		return firestorestore.New(client), nil
	}
}

func newVerifiers(ctx context.Context, cfg *config.Config, app *firebase.App) (middleware.IDTokenVerifier, middleware.AppCheckTokenVerifier, error) {
	var verifier middleware.IDTokenVerifier
	switch cfg.IdentityProvider {
	case config.IdentityClerk:
		verifier = identity.NewClerkVerifier(cfg.ClerkSecretKey)
	default:
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init firebase auth: %w", err)
		}
		verifier = identity.NewFirebaseVerifier(client)
	}

	if app == nil {
		return verifier, nil, nil
	}
	client, err := app.AppCheck(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init app check: %w", err)
	}
	return verifier, identity.NewAppCheckVerifier(client), nil
}
