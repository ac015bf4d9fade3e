package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cardforge/cardforge/config"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// fakeExporter counts calls; exportErr fails every export and
// blockShutdown holds Shutdown until its context ends.
type fakeExporter struct {
	exportErr     error
	blockShutdown bool

	exports  atomic.Int32
	spans    atomic.Int32
	shutdown atomic.Bool
}

func (f *fakeExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	f.exports.Add(1)
	f.spans.Add(int32(len(spans)))
	return f.exportErr
}

func (f *fakeExporter) Shutdown(ctx context.Context) error {
	f.shutdown.Store(true)
	if f.blockShutdown {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func useExporter(t *testing.T, exp *fakeExporter) *atomic.Int32 {
	t.Helper()
	orig := newExporter
	prev := otel.GetTracerProvider()
	t.Cleanup(func() {
		newExporter = orig
		otel.SetTracerProvider(prev)
	})

	var calls atomic.Int32
	newExporter = func(context.Context, config.TracingConfig) (sdktrace.SpanExporter, error) {
		calls.Add(1)
		return exp, nil
	}
	return &calls
}

func enabledConfig() config.TracingConfig {
	return config.TracingConfig{
		Enabled:    true,
		Exporter:   "otlp",
		Endpoint:   "localhost:4317",
		Timeout:    time.Second,
		Sampler:    "always_on",
		SampleRate: 1,
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInit_Disabled(t *testing.T) {
	calls := useExporter(t, &fakeExporter{})

	shutdown, err := Init(context.Background(), config.TracingConfig{}, "cardforge", "test")
	require.NoError(t, err)
	assert.Zero(t, calls.Load(), "no exporter without tracing")

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.TracingConfig)
		want   string
	}{
		{"missing endpoint", func(c *config.TracingConfig) { c.Endpoint = " " }, "endpoint"},
		{"zero timeout", func(c *config.TracingConfig) { c.Timeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useExporter(t, &fakeExporter{})
			cfg := enabledConfig()
			tt.mutate(&cfg)

			_, err := Init(context.Background(), cfg, "cardforge", "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInit_ExportsAndShutsDown(t *testing.T) {
	exp := &fakeExporter{}
	useExporter(t, exp)

	shutdown, err := Init(context.Background(), enabledConfig(), "cardforge", "test", WithEnvironment("test"))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "workflow.run")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	assert.Equal(t, int32(1), exp.spans.Load())
	assert.True(t, exp.shutdown.Load())
}

func TestInit_ExportFailureIsLogged(t *testing.T) {
	exp := &fakeExporter{exportErr: errors.New("collector unavailable")}
	useExporter(t, exp)

	out := &syncBuffer{}
	log := logger.New(&logger.Config{Level: logger.DebugLevel, Format: "json", Writer: out})

	shutdown, err := Init(context.Background(), enabledConfig(), "cardforge", "test", WithLogger(log))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "genai.generate_message")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx), "export failures never fail shutdown")
	require.Positive(t, exp.exports.Load())

	logged := out.String()
	for _, want := range []string{`"Span export failed"`, `"endpoint":"localhost:4317"`, `"spans":1`, `collector unavailable`} {
		assert.Contains(t, logged, want)
	}
}

func TestShutdown_HonoursDeadline(t *testing.T) {
	useExporter(t, &fakeExporter{blockShutdown: true})

	shutdown, err := Init(context.Background(), enabledConfig(), "cardforge", "test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = shutdown(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSelectSampler(t *testing.T) {
	tests := map[string]string{
		"always_on":  "AlwaysOnSampler",
		"always_off": "AlwaysOffSampler",
		"ratio":      "ParentBased",
		"":           "ParentBased",
	}
	for sampler, want := range tests {
		got := selectSampler(config.TracingConfig{Sampler: sampler, SampleRate: 0.25}).Description()
		assert.Contains(t, got, want, "sampler %q", sampler)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"localhost:4317":                      "localhost:4317",
		"http://localhost:4317/v1/traces":     "localhost:4317",
		"https://otel.example.com:443/traces": "otel.example.com:443",
		"  ":                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeEndpoint(in), "normalizeEndpoint(%q)", in)
	}
}

func TestExporterOptions(t *testing.T) {
	cfg := enabledConfig()
	base := len(exporterOptions(config.TracingConfig{Endpoint: "https://otel.example.com", Timeout: time.Second}))

	assert.Equal(t, base+1, len(exporterOptions(cfg)), "plaintext endpoints add WithInsecure")

	cfg.Headers = map[string]string{"authorization": "Bearer x"}
	assert.Equal(t, base+2, len(exporterOptions(cfg)))
	assert.True(t, strings.HasPrefix(normalizeEndpoint(cfg.Endpoint), "localhost"))
}
