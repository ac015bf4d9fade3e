package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CARDFORGE_"
	// Delimiter is the key delimiter for nested config.
	Delimiter = "."
)

// legacyEnv maps the unprefixed variables used by existing deployments
// onto config keys.
var legacyEnv = map[string]string{
	"PORT":                "server.port",
	"NODE_ENV":            "app.environment",
	"APP_ENV":             "app.environment",
	"LOG_LEVEL":           "log.level",
	"GEMINI_API_KEY":      "genai.api_key",
	"GEMINI_TEXT_MODEL":   "genai.text_model",
	"GEMINI_IMAGE_MODEL":  "genai.image_model",
	"TWILIO_ACCOUNT_SID":  "sms.twilio.account_sid",
	"TWILIO_AUTH_TOKEN":   "sms.twilio.auth_token",
	"TWILIO_PHONE_NUMBER": "sms.twilio.from_number",
	"APP_URL":             "sms.app_url",
	"GIFTCARD_SANDBOX":    "giftcards.sandbox",
	"GIFTCARD_MOCK":       "giftcards.mock",
	"REDIS_URL":           "redis.address",
}

// Loader handles configuration loading from various sources.
type Loader struct {
	k *koanf.Koanf
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{k: koanf.New(Delimiter)}
}

// Load loads configuration from all sources. Later sources win:
// defaults, config file, CARDFORGE_ env, legacy env, overrides.
func (l *Loader) Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	if err := l.k.Load(confmap.Provider(structToMap(DefaultConfig(), ""), Delimiter), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := l.loadFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		l.loadDefaultFiles()
	}

	if err := l.k.Load(env.Provider(EnvPrefix, Delimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if legacy := readLegacyEnv(os.LookupEnv); len(legacy) > 0 {
		if err := l.k.Load(confmap.Provider(legacy, Delimiter), nil); err != nil {
			return nil, fmt.Errorf("failed to load legacy env vars: %w", err)
		}
	}

	if len(overrides) > 0 {
		if err := l.k.Load(confmap.Provider(overrides, Delimiter), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateWithDetails(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadFile(path string) error {
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}

	return l.k.Load(file.Provider(path), parser)
}

func (l *Loader) loadDefaultFiles() {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"configs/config.yaml",
		"/etc/cardforge/config.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = l.loadFile(path)
			return
		}
	}
}

// envKey maps CARDFORGE_SERVER_PORT to server.port. Deeper keys use a
// double underscore between levels: CARDFORGE_SMS__TWILIO__ACCOUNT_SID.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if strings.Contains(s, "__") {
		return strings.ReplaceAll(s, "__", Delimiter)
	}
	return strings.Replace(s, "_", Delimiter, 1)
}

func readLegacyEnv(lookup func(string) (string, bool)) map[string]interface{} {
	out := make(map[string]interface{})
	for name, key := range legacyEnv {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		switch key {
		case "server.port":
			if port, err := strconv.Atoi(v); err == nil {
				out[key] = port
			}
		case "giftcards.sandbox", "giftcards.mock":
			if b, err := strconv.ParseBool(v); err == nil {
				out[key] = b
			}
		case "redis.address":
			out[key] = strings.TrimPrefix(v, "redis://")
		default:
			out[key] = v
		}
	}
	return out
}

// Get returns a raw configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.k.Get(key)
}

// Print prints the loaded configuration for debugging.
func (l *Loader) Print() string {
	return l.k.Sprint()
}

// structToMap flattens a struct into dot-separated keys using mapstructure tags.
func structToMap(v interface{}, prefix string) map[string]interface{} {
	result := make(map[string]interface{})
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return result
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + Delimiter + key
		}

		fv := val.Field(i)
		switch fv.Kind() {
		case reflect.Struct:
			for k, nested := range structToMap(fv.Interface(), key) {
				result[k] = nested
			}
		case reflect.Slice:
			items := make([]interface{}, fv.Len())
			for j := range items {
				items[j] = fv.Index(j).Interface()
			}
			result[key] = items
		case reflect.Map:
			if !fv.IsNil() {
				result[key] = fv.Interface()
			}
		default:
			result[key] = fv.Interface()
		}
	}
	return result
}

// Load is a convenience function to load configuration.
func Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(configPath, overrides)
}
