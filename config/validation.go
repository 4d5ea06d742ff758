package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator reports field paths by koanf key, so errors name the same
// keys a user writes in config.yaml.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg against its struct tags and the observability rules.
// Every failure is a *ConfigError; several are joined.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewValidationError("config", "is nil")
	}

	var errs []error
	if err := structValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, toConfigError(fe))
		}
	}

	if err := cfg.Observability.Validate(); err != nil {
		errs = append(errs, NewValidationError("observability", err.Error()))
	}

	return errors.Join(errs...)
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// EnvVar returns the environment variable that sets key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field, EnvVar(field), field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "url":
		return NewValidationError(field, "must be an absolute URL")
	case "gt":
		return NewValidationError(field, "must be greater than "+fe.Param())
	case "gte":
		return NewValidationError(field, "must be at least "+fe.Param())
	case "lte":
		return NewValidationError(field, "must be at most "+fe.Param())
	default:
		return NewValidationError(field, "failed "+fe.Tag()+" validation")
	}
}
