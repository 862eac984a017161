package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/eventsignal/internal/event/topic"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct constraints, then the values the struct tags
// cannot express: paths, priorities, durations and links.
func Validate(cfg Config) error {
	var errs []FieldError

	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   trimNamespace(fe.Namespace()),
				Message: describe(fe),
			})
		}
	}

	if _, err := cfg.Loop.Timeout(); err != nil {
		errs = append(errs, FieldError{Field: "loop.task_timeout", Message: err.Error()})
	}

	paths := make(map[string]int, len(cfg.Events))
	for i, ev := range cfg.Events {
		field := fmt.Sprintf("events[%d]", i)

		if ev.Path != "" && !topic.Topic(ev.Path).IsPath() {
			errs = append(errs, FieldError{Field: field + ".path", Message: fmt.Sprintf("invalid path %q", ev.Path)})
		}
		if prev, dup := paths[ev.Path]; dup && ev.Path != "" {
			errs = append(errs, FieldError{Field: field + ".path", Message: fmt.Sprintf("duplicate of events[%d]", prev)})
		}
		paths[ev.Path] = i

		if _, err := ev.CooldownDuration(); err != nil {
			errs = append(errs, FieldError{Field: field + ".cooldown", Message: err.Error()})
		}
		if _, err := ev.PauseThreshold(); err != nil {
			errs = append(errs, FieldError{Field: field + ".pause", Message: err.Error()})
		}
		for j, c := range ev.Connections {
			if _, err := c.ConnectionPriority(); err != nil {
				errs = append(errs, FieldError{Field: fmt.Sprintf("%s.connections[%d].priority", field, j), Message: err.Error()})
			}
		}
	}

	for i, ev := range cfg.Events {
		for j, l := range ev.Linked {
			if _, ok := paths[l]; !ok {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("events[%d].linked[%d]", i, j),
					Message: fmt.Sprintf("unknown event %q", l),
				})
			}
		}
	}

	for i, o := range cfg.Observers {
		field := fmt.Sprintf("observers[%d]", i)
		if o.Pattern != "" && !topic.Topic(o.Pattern).IsValid() {
			errs = append(errs, FieldError{Field: field + ".pattern", Message: fmt.Sprintf("invalid pattern %q", o.Pattern)})
		}
		if _, err := o.ObserverPriority(); err != nil {
			errs = append(errs, FieldError{Field: field + ".priority", Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// trimNamespace drops the root struct name from a validator namespace.
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "script or file is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
