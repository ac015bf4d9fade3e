package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "cardforge",
			Version:     "dev",
			Environment: "development",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 30 * time.Second,
				RequestTimeout:  25 * time.Second,
				MaxHeaderBytes:  1 << 20,
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
				ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
				MaxAge:         600,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		GenAI: GenAIConfig{
			TextModel:  "gemini-2.0-flash",
			ImageModel: "imagen-3.0-generate-002",
			Timeout:    15 * time.Second,
			Lane: LaneConfig{
				MaxConcurrency: 4,
				QueueSize:      32,
				Backpressure:   "block",
			},
		},
		SMS: SMSConfig{
			Provider: "twilio",
			SNS: SNSConfig{
				Region: "us-east-1",
			},
			RateLimit: RateLimitConfig{
				Enabled: true,
				Backend: "memory",
				Limit:   5,
				Window:  time.Minute,
			},
			AppURL: "http://localhost:3000",
		},
		GiftCards: GiftCardConfig{
			Sandbox: true,
			Mock:    true,
			BaseURL: "https://giftcards.cardforge.app",
		},
		Workflow: WorkflowConfig{
			Timeout:             15 * time.Second,
			RecommendationLimit: 3,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlp",
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
	}
}
