package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints and the cross-field rules tags
// cannot express. Every violation is reported, one per line.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port {
		problems = append(problems, fmt.Sprintf("metrics.port and api.port must differ (both %d)", cfg.API.Port))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "\n"))
	}
	return nil
}

// describe renders a field error using the namespaced field name, e.g.
// "Accumulator.CleanBatchSize: must be > 0 (got 0)".
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	var rule string
	switch fe.Tag() {
	case "required":
		rule = "is required"
	case "oneof":
		rule = "must be one of [" + fe.Param() + "]"
	case "gt":
		rule = "must be > " + fe.Param()
	case "gte", "min":
		rule = "must be >= " + fe.Param()
	case "lte", "max":
		rule = "must be <= " + fe.Param()
	case "ltefield":
		rule = "must not exceed " + fe.Param()
	case "url":
		rule = "must be a valid URL"
	default:
		rule = "failed " + fe.Tag() + " check"
	}
	return fmt.Sprintf("%s: %s (got %v)", field, rule, fe.Value())
}
