package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	policyNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		// rate: a float in [0, 1].
		_ = v.RegisterValidation("rate", func(fl validator.FieldLevel) bool {
			value := fl.Field().Float()
			return value >= 0 && value <= 1
		})

		// policy_name: registry-style identifier. Whether the policy is
		// actually registered is checked at wiring time, where the registry
		// is populated.
		_ = v.RegisterValidation("policy_name", func(fl validator.FieldLevel) bool {
			return policyNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return agentshifterrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if cfg.Source.Instructions == "" && cfg.Source.InstructionsFile == "" {
		return agentshifterrors.NewValidationError("source", "instructions or instructions_file is required", nil)
	}
	if cfg.Source.Instructions != "" && cfg.Source.InstructionsFile != "" {
		return agentshifterrors.NewValidationError("source", "instructions and instructions_file are mutually exclusive", nil)
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return agentshifterrors.NewValidationError("journal.path", "required when the journal is enabled", nil)
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return agentshifterrors.NewValidationError("", err.Error(), err)
	}

	first := fieldErrs[0]
	field := normalizeFieldPath(first.Namespace())
	message := fmt.Sprintf("failed %q constraint", first.Tag())
	if first.Param() != "" {
		message = fmt.Sprintf("failed %q constraint (%s)", first.Tag(), first.Param())
	}
	return agentshifterrors.NewValidationError(field, message, err)
}

// normalizeFieldPath turns "Config.Budget.MaxIterations" into
// "budget.max_iterations" so messages match the YAML the user wrote.
func normalizeFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = toSnake(part)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
