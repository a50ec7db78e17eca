package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kiti15237/American-Gut/internal/types"
)

// Validator validates configuration values.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance. Field errors are
// reported under the config file key names, not the Go field names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate checks the configuration and returns detailed error messages.
func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}

		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	// Every scheduled stage needs a usable resource profile.
	var messages []string
	for _, name := range ScheduledStageNames {
		profile, ok := cfg.Stages[name]
		if !ok {
			messages = append(messages, fmt.Sprintf("stages.%s: missing resource profile", name))
			continue
		}
		if !profile.Queue.IsValid() {
			messages = append(messages, fmt.Sprintf("stages.%s.queue: unknown queue %q (must be short or long)", name, profile.Queue))
		}
		if profile.Cores < 1 {
			messages = append(messages, fmt.Sprintf("stages.%s.cores: must be at least 1 (got %d)", name, profile.Cores))
		}
		if profile.WallTime <= 0 {
			messages = append(messages, fmt.Sprintf("stages.%s.wall_time: must be positive", name))
		}
	}
	if cfg.Scheduler.PollInterval < 0 {
		messages = append(messages, "scheduler.poll_interval: must not be negative")
	}

	if len(messages) > 0 {
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	return nil
}

// formatValidationError converts a validator field error into a
// human-readable message.
func formatValidationError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: required field is missing", field)
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, e.Tag())
	}
}
