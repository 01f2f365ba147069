package config

import (
	"fmt"
	"strings"
)

// ConfigError is a structured error encountered while loading or
// validating a config.toml: which file, which table, which key, and
// (where the TOML decoder can tell us) actionable suggestions.
type ConfigError struct {
	FilePath    string
	Table       string // e.g. "profile.ci", "script.setup-db"
	Key         string
	ErrorType   string // "parse", "unknown-key", "version", "validation"
	Message     string
	Suggestions []string
}

func (ce ConfigError) Error() string {
	if ce.Table == "" {
		return fmt.Sprintf("%s: %s", ce.FilePath, ce.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", ce.FilePath, ce.Table, ce.Message)
}

// DetailedError renders ce with every field that's set, one per line.
func (ce ConfigError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration error in %s", ce.FilePath))
	if ce.Table != "" {
		parts = append(parts, fmt.Sprintf("  Table: %s", ce.Table))
	}
	if ce.Key != "" {
		parts = append(parts, fmt.Sprintf("  Key: %s", ce.Key))
	}
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

// ConfigErrorCollection accumulates errors across a config load so the
// caller can report every problem at once instead of stopping at the
// first one.
type ConfigErrorCollection struct {
	Errors []ConfigError
}

func (cec ConfigErrorCollection) Error() string {
	switch len(cec.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return cec.Errors[0].Error()
	default:
		return fmt.Sprintf("%d configuration errors: %s (and %d more)",
			len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
	}
}

// HasErrors reports whether any errors were collected.
func (cec *ConfigErrorCollection) HasErrors() bool { return len(cec.Errors) > 0 }

// Add appends err to the collection.
func (cec *ConfigErrorCollection) Add(err ConfigError) { cec.Errors = append(cec.Errors, err) }

// GetDetailedReport renders every collected error in full.
func (cec *ConfigErrorCollection) GetDetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration errors (%d):", len(cec.Errors)))
	parts = append(parts, strings.Repeat("=", 60))
	for i, err := range cec.Errors {
		parts = append(parts, fmt.Sprintf("\nError %d:", i+1))
		parts = append(parts, err.DetailedError())
	}
	return strings.Join(parts, "\n")
}
