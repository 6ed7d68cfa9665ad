package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vk/circuitgo/internal/snapshot"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string `validate:"required,snapshotext"`
	SavePath  string `validate:"omitempty,snapshotext"`

	// ListenPort serves the UI bridge, /health and /metrics. 0 evaluates
	// the graph once, headless.
	ListenPort int    `validate:"gte=0,lte=65535"`
	LogFormat  string `validate:"oneof=text json"`
	LogLevel   string `validate:"oneof=debug info warn error"`

	OpenAIModel string        `validate:"required"`
	EditTimeout time.Duration `validate:"gt=0"`
}

// configValidate is shared by every NewConfig call.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("snapshotext", validateSnapshotExt)
}

// validateSnapshotExt accepts paths whose extension has a snapshot codec.
func validateSnapshotExt(fl validator.FieldLevel) bool {
	_, err := snapshot.ForPath(fl.Field().String())
	return err == nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := configValidate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describe(fe))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required configuration field and cannot be empty", fe.Field())
	case "oneof":
		return fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "snapshotext":
		return fmt.Sprintf("invalid %s %q: must end in .json, .yaml, .yml or .hcl", fe.Field(), fe.Value())
	}
	return fmt.Sprintf("invalid %s %v: failed the '%s' check", fe.Field(), fe.Value(), fe.Tag())
}
