package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance
// used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// GetValidator returns a configured validator instance for use outside
// the config package (e.g. by internal/command when validating
// declaration signatures against spec §4.8's TypeShape rules).
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// Validate checks cfg's fixed fields (table mode, history format, and
// similar enumerated settings) and returns a Warning per violation
// rather than an error — spec §6.2 treats a malformed config record as
// something to warn about, never something that aborts startup.
func Validate(cfg ShellConfig) []Warning {
	err := validatorInstance().Struct(cfg)
	if err == nil {
		return nil
	}

	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Warning{{Field: "config", Message: err.Error()}}
	}

	warnings := make([]Warning, 0, len(ves))
	for _, fe := range ves {
		warnings = append(warnings, Warning{
			Field:   yamlishFieldName(fe),
			Message: fmt.Sprintf("value %v failed validation for tag %q", fe.Value(), fe.Tag()),
		})
	}
	return warnings
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
