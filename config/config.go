// Package config provides configuration management for cardforge.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// GenAI configures the generative content gateway.
	GenAI GenAIConfig `mapstructure:"genai"`

	// SMS configures the messaging gateway.
	SMS SMSConfig `mapstructure:"sms"`

	// GiftCards configures the gift catalog store.
	GiftCards GiftCardConfig `mapstructure:"giftcards"`

	// Workflow configures the card generation pipeline.
	Workflow WorkflowConfig `mapstructure:"workflow"`

	// Redis is the shared Redis connection, used by the distributed rate limiter.
	Redis RedisConfig `mapstructure:"redis"`

	// Metrics is the Prometheus configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the OpenTelemetry configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`

	// Environment is the runtime environment. Stack traces are only
	// exposed in error responses outside production.
	Environment string `mapstructure:"environment" validate:"oneof=development test staging production"`

	Debug bool `mapstructure:"debug"`
}

// IsProduction reports whether the app runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string     `mapstructure:"host"`
	Port int        `mapstructure:"port" validate:"required,min=1,max=65535"`
	HTTP HTTPConfig `mapstructure:"http"`
	CORS CORSConfig `mapstructure:"cors"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout bounds a single handler; zero disables the timeout middleware.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}

// GenAIConfig configures the generative model client.
type GenAIConfig struct {
	// APIKey is the Gemini API key. An empty key runs the gateway in
	// fallback-only mode.
	APIKey string `mapstructure:"api_key"`

	TextModel  string `mapstructure:"text_model" validate:"required"`
	ImageModel string `mapstructure:"image_model"`

	// ImageGeneration renders each design variation prompt with the image model.
	ImageGeneration bool `mapstructure:"image_generation"`

	// Timeout bounds every remote generation call.
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`

	// Lane bounds concurrent model calls.
	Lane LaneConfig `mapstructure:"lane"`
}

// LaneConfig bounds how many calls of one kind run at once.
type LaneConfig struct {
	// MaxConcurrency is the number of calls allowed in flight; zero
	// disables the lane.
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"min=0"`

	// QueueSize is the number of calls allowed to wait for a slot.
	QueueSize int `mapstructure:"queue_size" validate:"min=0"`

	// Backpressure is block (wait for a slot) or drop (fall back at once).
	Backpressure string `mapstructure:"backpressure" validate:"omitempty,oneof=block drop"`

	// RateLimit caps call starts per second; zero is unlimited.
	RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`
}

// SMSConfig configures the messaging gateway.
type SMSConfig struct {
	// Provider is the delivery backend: twilio or sns. Placeholder or
	// missing credentials always select the logging mock.
	Provider string `mapstructure:"provider" validate:"oneof=twilio sns mock"`

	Twilio TwilioConfig `mapstructure:"twilio"`
	SNS    SNSConfig    `mapstructure:"sns"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// AppURL is the public web app base used in links sent over SMS.
	AppURL string `mapstructure:"app_url"`
}

// TwilioConfig holds Twilio credentials.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

// SNSConfig holds AWS SNS settings.
type SNSConfig struct {
	Region   string `mapstructure:"region"`
	SenderID string `mapstructure:"sender_id"`
}

// RateLimitConfig limits messages per destination number.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Backend is memory (per process) or redis (shared).
	Backend string `mapstructure:"backend" validate:"oneof=memory redis"`

	// Limit is the number of messages allowed per Window.
	Limit  int           `mapstructure:"limit" validate:"min=0"`
	Window time.Duration `mapstructure:"window" validate:"min=0"`
}

// GiftCardConfig configures the gift catalog store.
type GiftCardConfig struct {
	// Sandbox marks issued cards as sandbox cards in their metadata.
	Sandbox bool `mapstructure:"sandbox"`

	// Mock allows balance look-ups for card ids this process did not issue.
	Mock bool `mapstructure:"mock"`

	// BaseURL prefixes redemption, wallet and QR links.
	BaseURL string `mapstructure:"base_url" validate:"required"`

	// SimulatedLatency delays catalog calls to mimic a remote provider.
	SimulatedLatency time.Duration `mapstructure:"simulated_latency" validate:"min=0"`
}

// WorkflowConfig configures the card generation pipeline.
type WorkflowConfig struct {
	// Timeout bounds a whole pipeline run.
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`

	// RecommendationLimit caps gift recommendations per run.
	RecommendationLimit int `mapstructure:"recommendation_limit" validate:"min=1"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Address is host:port, or a redis:// URL.
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	// Port serves metrics on a dedicated listener; zero mounts Path on the API router.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	Exporter   string            `mapstructure:"exporter" validate:"omitempty,oneof=otlp"`
	Endpoint   string            `mapstructure:"endpoint"`
	Headers    map[string]string `mapstructure:"headers"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Sampler    string            `mapstructure:"sampler" validate:"omitempty,oneof=always_on always_off ratio"`
	SampleRate float64           `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	return ValidateWithDetails(c)
}

// String returns a summary without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, SMS: %s, GenAI: %s}",
		c.App.Name, c.Server.Port, c.App.Environment, c.SMS.Provider, c.GenAI.TextModel)
}
