package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/y0ug/socialflow/internal/notifications"
	"github.com/y0ug/socialflow/internal/relay"
	"github.com/y0ug/socialflow/internal/store"
	"github.com/y0ug/socialflow/internal/webserver"
	"github.com/y0ug/socialflow/pkg/flow"
)

func main() {
	ctx := context.Background()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found. Proceeding with environment variables.")
	}

	flowConfig, err := flow.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load flow configuration: %v", err)
	}

	relayConfig, err := relay.LoadRelayConfig()
	if err != nil {
		logger.Fatalf("Failed to load relay configuration: %v", err)
	}

	var codeRelay flow.CodeRelay
	switch relayConfig.Type {
	case "memory":
		codeRelay = relay.NewMemoryRelay()
		logger.Info("Memory relay initialized")
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     relayConfig.RedisAddr,
			Password: relayConfig.RedisPass,
			DB:       relayConfig.RedisDB,
		})
		codeRelay, err = relay.NewRedisRelay(client, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize redis relay: %v", err)
		}
		logger.Info("Redis relay initialized")
	}

	storeConfig, err := store.LoadStoreConfig()
	if err != nil {
		logger.Fatalf("Failed to load store configuration: %v", err)
	}

	var loginStore store.Store
	switch storeConfig.Type {
	case "bolt":
		loginStore, err = store.NewBoltStore(storeConfig.Path)
		if err != nil {
			logger.Fatalf("Failed to initialize BoltStore: %v", err)
		}
		logger.Info("BoltStore initialized successfully")
	case "redis":
		loginStore, err = store.NewRedisStore(storeConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize RedisStore: %v", err)
		}
		logger.Info("RedisStore initialized successfully")
	}
	defer loginStore.Close(ctx)

	var notifier *notifications.Notifier
	notificationConfig := notifications.LoadNotificationConfig()
	if notificationConfig.Enabled() {
		notifier, err = notifications.NewNotifier(notificationConfig, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize notifier: %v", err)
		}
		logger.Info("Notifier initialized successfully")
	}

	exchanger := flow.NewTokenExchangeClient(flowConfig.EgressProxyURL, logger)
	profiles := flow.NewProfileFetcher(flowConfig.EgressProxyURL, logger)
	if limiter := loadRateLimiter(logger); limiter != nil {
		exchanger.Limiter = limiter
		profiles.Limiter = limiter
	}

	registry := flow.NewScriptRegistry(&flow.HTTPScriptLoader{}, logger)
	engine := flow.NewEngine(logger)

	for name, p := range flowConfig.Providers {
		callbacks := buildCallbacks(ctx, name, loginStore, notifier, logger)

		switch p.Flow {
		case flow.FlowPopup:
			ctrl := flow.NewPopupFlowController(p, codeRelay, exchanger, profiles, nil, callbacks, logger)
			if flowConfig.AwaitTimeout > 0 {
				ctrl.SetAwaitTimeout(flowConfig.AwaitTimeout)
			}
			engine.RegisterPopup(ctrl)
		case flow.FlowSDK:
			adapter := buildSdkAdapter(p, flowConfig.EgressProxyURL, logger)
			if adapter == nil {
				logger.Fatalf("No SDK adapter for provider: %s", name)
			}
			engine.RegisterSdk(flow.NewSdkFlowController(adapter, registry, callbacks, logger))
		}
		logger.Infof("Provider configured: %s (%s)", name, p.Flow)
	}

	webServerConfig, err := webserver.NewWebserverConfig()
	if err != nil {
		logger.Fatalf("Failed to load webserver configuration: %v", err)
	}

	webServer := webserver.NewWebServer(engine, codeRelay, loginStore, webServerConfig, logger)

	ctxCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	server, err := webserver.StartWebServer(ctxCancel, webServer)
	if err != nil {
		logger.Fatalf("Failed to start web server: %v", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	logger.Infof("Received signal: %s. Initiating shutdown...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Failed to gracefully shutdown the server: %v", err)
	}

	logger.Info("Shutdown complete. Exiting.")
}

// buildCallbacks wires a provider's resolve/reject into the login store
// and the optional notifier.
func buildCallbacks(ctx context.Context, provider string, loginStore store.Store, notifier *notifications.Notifier, logger *logrus.Logger) flow.Callbacks {
	return flow.Callbacks{
		OnLoginStart: func() {
			logger.WithField("provider", provider).Info("Login started")
		},
		OnResolve: func(res flow.Result) {
			logger.WithField("provider", res.Provider).Info("Login resolved")
			if err := loginStore.SaveLogin(ctx, store.RecordFromResult(res)); err != nil {
				logger.WithError(err).Error("Failed to store login result")
			}
			if notifier != nil {
				notifier.LoginResolved(res.Provider)
			}
		},
		OnReject: func(err error) {
			logger.WithError(err).WithField("provider", provider).Warn("Login rejected")
			if notifier != nil {
				notifier.LoginRejected(provider, err)
			}
		},
	}
}

// buildSdkAdapter picks the adapter for a script-based provider.
func buildSdkAdapter(p *flow.ProviderConfig, proxyURL string, logger *logrus.Logger) flow.SdkAdapter {
	switch p.Name {
	case "google":
		responseType := flow.GoogleResponseType(os.Getenv("SOCIAL_GOOGLE_RESPONSE_TYPE"))
		return flow.NewGoogleSdkAdapter(p, nil, responseType, proxyURL, logger)
	case "facebook":
		return flow.NewFacebookSdkAdapter(p, nil, proxyURL, logger)
	}
	return nil
}

// loadRateLimiter builds the outbound rate limiter from FLOW_RATE_LIMIT
// (requests per second) and FLOW_RATE_BURST.
func loadRateLimiter(logger *logrus.Logger) *rate.Limiter {
	limitStr := os.Getenv("FLOW_RATE_LIMIT")
	if limitStr == "" {
		return nil
	}
	limit, err := strconv.ParseFloat(limitStr, 64)
	if err != nil {
		logger.Fatalf("Invalid FLOW_RATE_LIMIT: %v", err)
	}
	burst := 1
	if burstStr := os.Getenv("FLOW_RATE_BURST"); burstStr != "" {
		burst, err = strconv.Atoi(burstStr)
		if err != nil {
			logger.Fatalf("Invalid FLOW_RATE_BURST: %v", err)
		}
	}
	logger.Infof("Outbound rate limiter: %v req/s, burst %d", limit, burst)
	return rate.NewLimiter(rate.Limit(limit), burst)
}
