package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConfigError represents a validation error for a specific field.
type ConfigError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of config errors.
type ValidationErrors []ConfigError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ValidateWithDetails validates struct tags and the cross-field rules
// tags cannot express.
func ValidateWithDetails(cfg *Config) error {
	var details ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range fieldErrs {
			details = append(details, ConfigError{
				Field:   fe.Namespace(),
				Message: formatValidationError(fe),
				Value:   fe.Value(),
			})
		}
	}

	details = append(details, crossFieldErrors(cfg)...)
	if len(details) > 0 {
		return details
	}
	return nil
}

func crossFieldErrors(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if cfg.SMS.Provider == "sns" && cfg.SMS.SNS.Region == "" {
		errs = append(errs, ConfigError{
			Field:   "Config.SMS.SNS.Region",
			Message: "is required when sms.provider is sns",
			Value:   cfg.SMS.SNS.Region,
		})
	}
	if cfg.SMS.RateLimit.Enabled && cfg.SMS.RateLimit.Backend == "redis" && cfg.Redis.Address == "" {
		errs = append(errs, ConfigError{
			Field:   "Config.Redis.Address",
			Message: "is required when the redis rate limit backend is used",
			Value:   cfg.Redis.Address,
		})
	}
	if cfg.SMS.RateLimit.Enabled && (cfg.SMS.RateLimit.Limit <= 0 || cfg.SMS.RateLimit.Window <= 0) {
		errs = append(errs, ConfigError{
			Field:   "Config.SMS.RateLimit",
			Message: "limit and window must be positive when rate limiting is enabled",
			Value:   fmt.Sprintf("%d/%s", cfg.SMS.RateLimit.Limit, cfg.SMS.RateLimit.Window),
		})
	}
	if cfg.GenAI.ImageGeneration && cfg.GenAI.ImageModel == "" {
		errs = append(errs, ConfigError{
			Field:   "Config.GenAI.ImageModel",
			Message: "is required when image generation is enabled",
			Value:   cfg.GenAI.ImageModel,
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, ConfigError{
			Field:   "Config.Tracing.Endpoint",
			Message: "is required when tracing is enabled",
			Value:   cfg.Tracing.Endpoint,
		})
	}

	return errs
}

// formatValidationError converts validator.FieldError to a human-readable message.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
