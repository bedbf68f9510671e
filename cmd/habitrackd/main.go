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

	"filippo.io/age"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"habitrack-backend/config"
	"habitrack-backend/internal/api"
	"habitrack-backend/internal/db"
	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/notification"
	"habitrack-backend/internal/remote"
	"habitrack-backend/internal/store"
)

// tokenSource defers to the auth store once it exists; the HTTP client is
// built before it.
type tokenSource struct {
	auth *store.AuthStore
}

func (t *tokenSource) Token() string {
	if t.auth == nil {
		return ""
	}
	return t.auth.Token()
}

type transports struct {
	properties remote.Transport[model.PropertyInput, model.Property]
	assets     remote.Transport[model.AssetInput, model.Asset]
	users      remote.Transport[model.UserInput, model.UserProfile]
	otp        remote.OTPService
}

func newTransports(cfg config.RemoteConfig, tokens remote.TokenSource, logger logrus.FieldLogger) (transports, error) {
	switch cfg.Mode {
	case "mock":
		return transports{
			properties: remote.NewPropertyMock(cfg.Latency),
			assets:     remote.NewAssetMock(cfg.Latency),
			users:      remote.NewUserMock(cfg.Latency),
			otp:        remote.NewMockOTP(cfg.Latency),
		}, nil
	case "http":
		if cfg.BaseURL == "" {
			return transports{}, errors.New("remote.base_url is required in http mode")
		}
		client := remote.NewClient(cfg.BaseURL, cfg.HTTPProxy, cfg.Timeout, tokens, logger.WithField("component", "remote"))
		return transports{
			properties: remote.NewHTTP[model.PropertyInput, model.Property](client, "properties"),
			assets:     remote.NewHTTP[model.AssetInput, model.Asset](client, "assets"),
			users:      remote.NewHTTP[model.UserInput, model.UserProfile](client, "users"),
			otp:        remote.NewHTTPOTP(client),
		}, nil
	default:
		return transports{}, fmt.Errorf("unknown remote.mode %q", cfg.Mode)
	}
}

// newBacking returns the key-value engine for one store namespace.
func newBacking(cfg config.StorageConfig, gormDB *gorm.DB, namespace string) kv.Store {
	if cfg.Driver == "memory" {
		return kv.NewMemoryStore()
	}
	return kv.NewGormStore(gormDB, namespace)
}

// newStores builds every store over its own namespace; the auth store is
// encrypted with identity.
func newStores(cfg *config.Config, gormDB *gorm.DB, identity *age.X25519Identity, remotes transports, clock remote.Clock, logger logrus.FieldLogger) api.Stores {
	properties := store.NewPropertyStore(newBacking(cfg.Storage, gormDB, kv.NamespaceProperty), remotes.properties, logger)
	return api.Stores{
		Properties: properties,
		Assets:     store.NewAssetStore(newBacking(cfg.Storage, gormDB, kv.NamespaceAsset), remotes.assets, properties, logger),
		Users:      store.NewUserStore(newBacking(cfg.Storage, gormDB, kv.NamespaceUser), remotes.users, logger),
		Auth: store.NewAuthStore(
			kv.NewEncryptedStore(newBacking(cfg.Storage, gormDB, kv.NamespaceAuth), identity),
			remotes.otp, clock, cfg.Auth.OTPCooldown, logger,
		),
	}
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	levelName := cfg.Log.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		levelName = env
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		logger.Warnf("Invalid log level %q, using info", levelName)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.Infof("Configuration loaded from %s", configPath)

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	identity, err := kv.LoadOrCreateIdentity(cfg.Storage.EncryptionKeyPath)
	if err != nil {
		logger.Fatalf("failed to load storage key: %v", err)
	}

	tokens := &tokenSource{}
	remotes, err := newTransports(cfg.Remote, tokens, logger)
	if err != nil {
		logger.Fatalf("failed to configure remote: %v", err)
	}
	logger.Infof("Remote mode: %s", cfg.Remote.Mode)

	stores := newStores(cfg, gormDB, identity, remotes, remote.RealClock{}, logger)
	tokens.auth = stores.Auth

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for name, init := range map[string]func(context.Context) error{
		"properties": stores.Properties.Initialize,
		"assets":     stores.Assets.Initialize,
		"user":       stores.Users.Initialize,
		"auth":       stores.Auth.Initialize,
	} {
		if err := init(ctx); err != nil {
			logger.WithError(err).Errorf("Failed to hydrate %s store, starting empty", name)
		}
	}
	logger.Info("Stores hydrated")

	var (
		webpushOptions *webpush.Options
		alerts         api.AlertDispatcher
	)
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, gormDB, webpushOptions, logger)
		pool.Start(ctx)
		alerts = pool
	} else {
		logger.Warn("VAPID keys are not configured; push alerts are disabled")
	}

	router := api.NewRouter(api.NewHandler(stores, gormDB, webpushOptions, alerts, logger), cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Info("Server gracefully stopped")
}
