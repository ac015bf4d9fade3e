package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/cardforge/cardforge/config"
	"github.com/cardforge/cardforge/pkg/agents"
	"github.com/cardforge/cardforge/pkg/api"
	"github.com/cardforge/cardforge/pkg/api/handlers"
	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/lane"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/metrics"
	"github.com/cardforge/cardforge/pkg/ratelimit"
	"github.com/cardforge/cardforge/pkg/sms"
	"github.com/cardforge/cardforge/pkg/telemetry/tracing"
	"github.com/cardforge/cardforge/pkg/version"
	"github.com/cardforge/cardforge/pkg/workflow"
)

// app holds the wired components of one process.
type app struct {
	metrics *metrics.Manager
	server  *api.HTTPServer
	redis   *redis.Client
	lane    *lane.Lane

	shutdownTracing tracing.ShutdownFunc
}

// newApp builds every component from cfg. Nothing is listening yet.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	defaults := metrics.DefaultConfig()
	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:                 cfg.Metrics.Enabled,
		Port:                    cfg.Metrics.Port,
		Path:                    cfg.Metrics.Path,
		WorkflowDurationBuckets: defaults.WorkflowDurationBuckets,
		StageDurationBuckets:    defaults.StageDurationBuckets,
		GenAIDurationBuckets:    defaults.GenAIDurationBuckets,
		HTTPDurationBuckets:     defaults.HTTPDurationBuckets,
		LaneWaitBuckets:         defaults.LaneWaitBuckets,
	})

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version,
		tracing.WithLogger(log.With("component", "tracing")),
		tracing.WithEnvironment(cfg.App.Environment),
	)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	genaiLane, err := newLane("genai", cfg.GenAI.Lane, metricsManager)
	if err != nil {
		return nil, fmt.Errorf("init genai lane: %w", err)
	}
	gatewayOpts := []genai.Option{
		genai.WithLogger(log.With("component", "genai")),
		genai.WithMetrics(metricsManager),
	}
	if genaiLane != nil {
		gatewayOpts = append(gatewayOpts, genai.WithLane(genaiLane))
	}
	gateway := genai.NewGateway(newModel(ctx, cfg.GenAI, log), genai.Config{
		TextModel:       cfg.GenAI.TextModel,
		ImageModel:      cfg.GenAI.ImageModel,
		ImageGeneration: cfg.GenAI.ImageGeneration,
		Timeout:         cfg.GenAI.Timeout,
	}, gatewayOpts...)

	store := catalog.NewStore(catalog.Config{
		BaseURL:          cfg.GiftCards.BaseURL,
		Mock:             cfg.GiftCards.Mock,
		Sandbox:          cfg.GiftCards.Sandbox,
		SimulatedLatency: cfg.GiftCards.SimulatedLatency,
	},
		catalog.WithLogger(log.With("component", "catalog")),
		catalog.WithMetrics(metricsManager),
	)

	limiter, rdb, err := newLimiter(cfg.SMS.RateLimit, cfg.Redis)
	if err != nil {
		return nil, err
	}

	provider, err := sms.NewProvider(ctx, sms.ProviderConfig{
		Provider:         cfg.SMS.Provider,
		TwilioAccountSID: cfg.SMS.Twilio.AccountSID,
		TwilioAuthToken:  cfg.SMS.Twilio.AuthToken,
		TwilioFromNumber: cfg.SMS.Twilio.FromNumber,
		SNSRegion:        cfg.SMS.SNS.Region,
		SNSSenderID:      cfg.SMS.SNS.SenderID,
	}, log.With("component", "sms"))
	if err != nil {
		return nil, fmt.Errorf("init sms provider: %w", err)
	}
	messenger := sms.NewGateway(provider,
		sms.WithLimiter(limiter),
		sms.WithAppURL(cfg.SMS.AppURL),
		sms.WithLogger(log.With("component", "sms")),
		sms.WithMetrics(metricsManager),
	)

	stages := agents.Pipeline(gateway, store,
		agents.WithLogger(log),
		agents.WithLimit(cfg.Workflow.RecommendationLimit),
	)
	orchestrator := workflow.New(gateway,
		workflow.WithStages(stages...),
		workflow.WithTimeout(cfg.Workflow.Timeout),
		workflow.WithLogger(log.With("component", "workflow")),
		workflow.WithMetrics(metricsManager),
	)

	checks := map[string]handlers.ReadinessCheck{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	apiHandlers := &api.Handlers{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Environment, version.Version, checks),
		Cards:     handlers.NewCardsHandler(gateway, "gemini", log),
		GiftCards: handlers.NewGiftCardsHandler(store, log),
		SMS:       handlers.NewSMSHandler(messenger, log),
		Workflow:  handlers.NewWorkflowHandler(orchestrator, log),
	}
	if metricsManager.Enabled() {
		apiHandlers.Metrics = metricsManager
		apiHandlers.MetricsHandler = metricsManager.Handler()
	}

	log.Info("Components initialized",
		"genai_model", cfg.GenAI.TextModel,
		"sms_provider", messenger.ProviderName(),
		"rate_limit_backend", limiterName(cfg.SMS.RateLimit),
		"giftcards_mock", cfg.GiftCards.Mock,
		"genai_max_concurrency", cfg.GenAI.Lane.MaxConcurrency,
	)

	return &app{
		metrics:         metricsManager,
		server:          api.NewHTTPServer(cfg, log, apiHandlers),
		redis:           rdb,
		lane:            genaiLane,
		shutdownTracing: shutdownTracing,
	}, nil
}

// close releases everything newApp opened except the HTTP server.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.lane != nil {
		if err := a.lane.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s lane: %w", a.lane.Name(), err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newModel returns nil when no API key is configured, leaving the
// gateway on fallback content.
func newModel(ctx context.Context, cfg config.GenAIConfig, log logger.Logger) genai.Model {
	if cfg.APIKey == "" {
		log.Warn("No GenAI API key configured, generation will use fallback content")
		return nil
	}
	model, err := genai.NewGeminiModel(ctx, cfg.APIKey, cfg.TextModel, cfg.ImageModel)
	if err != nil {
		log.Error("Failed to create GenAI model, generation will use fallback content", "error", err)
		return nil
	}
	return model
}

// newLane returns nil when MaxConcurrency is zero, leaving model calls
// unbounded.
func newLane(name string, cfg config.LaneConfig, m lane.MetricsRecorder) (*lane.Lane, error) {
	if cfg.MaxConcurrency <= 0 {
		return nil, nil
	}
	backpressure, err := lane.ParseBackpressure(cfg.Backpressure)
	if err != nil {
		return nil, err
	}
	return lane.New(lane.Config{
		Name:           name,
		Capacity:       cfg.QueueSize,
		MaxConcurrency: cfg.MaxConcurrency,
		Backpressure:   backpressure,
		RateLimit:      cfg.RateLimit,
	}, lane.WithMetrics(m))
}

// newLimiter builds the SMS rate limiter. The Redis client is returned so
// it can be health-checked and closed; it is nil for other backends.
func newLimiter(cfg config.RateLimitConfig, rcfg config.RedisConfig) (ratelimit.Limiter, *redis.Client, error) {
	if !cfg.Enabled || cfg.Limit <= 0 || cfg.Window <= 0 {
		return ratelimit.Unlimited{}, nil, nil
	}
	if cfg.Backend != "redis" {
		return ratelimit.NewMemoryLimiter(cfg.Limit, cfg.Window), nil, nil
	}

	opts, err := redisOptions(rcfg)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return ratelimit.NewRedisLimiter(client, cfg.Limit, cfg.Window), client, nil
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.Address, "redis://") || strings.HasPrefix(cfg.Address, "rediss://") {
		opts, err := redis.ParseURL(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func limiterName(cfg config.RateLimitConfig) string {
	if !cfg.Enabled {
		return "none"
	}
	return cfg.Backend
}
