package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValidationError reports a single field-level problem found while
// validating an already-parsed Config.
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field %q: %s", ve.Field, ve.Message)
}

// ValidationErrors collects every ValidationError found during a single
// validation pass, rather than failing on the first one.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "no validation errors"
	case 1:
		return ve[0].Error()
	default:
		msgs := make([]string, len(ve))
		for i, e := range ve {
			msgs[i] = e.Error()
		}
		return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
	}
}

// HasErrors reports whether any validation errors were collected.
func (ve ValidationErrors) HasErrors() bool { return len(ve) > 0 }

// Add appends a validation error for field.
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

// toolNamespacePrefix marks a script or test-group name as owned by a
// tool integration rather than hand-authored in config.toml; nextrunner
// itself never writes names with this prefix and refuses to load a config
// that does, outside of the one collaborator-reserved exception.
const toolNamespacePrefix = "@tool:"

// ValidateToolNamespace rejects a user-authored script or test-group name
// that collides with the "@tool:<name>:" namespace reserved for
// programmatically generated config (from a build-system integration,
// for instance), unless allowed explicitly allows it for that tool.
func ValidateToolNamespace(name string, allowed map[string]bool) error {
	if !strings.HasPrefix(name, toolNamespacePrefix) {
		return nil
	}
	rest := strings.TrimPrefix(name, toolNamespacePrefix)
	tool, _, ok := strings.Cut(rest, ":")
	if !ok || tool == "" {
		return ValidationError{Field: name, Message: "malformed @tool: namespace, expected @tool:<name>:<id>"}
	}
	if !allowed[tool] {
		return ValidationError{Field: name, Message: fmt.Sprintf("the @tool:%s: namespace is reserved and was not declared as allowed", tool)}
	}
	return nil
}

// version is a minimal (major, minor, patch) triple. nextrunner's own
// release cadence doesn't need full semver precedence rules (pre-release
// tags, build metadata), so this stays a small hand-rolled comparator
// rather than pulling in a general-purpose semver library for three
// integers.
type version struct {
	major, minor, patch int
}

func parseVersion(s string) (version, error) {
	parts := strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return version{}, fmt.Errorf("config: empty version string")
	}
	var v version
	var err error
	if v.major, err = strconv.Atoi(parts[0]); err != nil {
		return version{}, fmt.Errorf("config: invalid major version %q: %w", s, err)
	}
	if len(parts) > 1 {
		if v.minor, err = strconv.Atoi(parts[1]); err != nil {
			return version{}, fmt.Errorf("config: invalid minor version %q: %w", s, err)
		}
	}
	if len(parts) > 2 {
		if v.patch, err = strconv.Atoi(parts[2]); err != nil {
			return version{}, fmt.Errorf("config: invalid patch version %q: %w", s, err)
		}
	}
	return v, nil
}

func (v version) less(other version) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// validateReferences checks that every profile override's test group and
// every profile's setup-script reference a name actually declared in
// [test-groups.*] or [script.*]. Unlike ValidationErrors (simple
// per-field problems), an unknown reference is reported as a ConfigError
// so the message can list every known name as a suggestion — the spec's
// "hard error listing all known names" requirement.
func validateReferences(cfg Config) error {
	knownGroups := make([]string, 0, len(cfg.TestGroups))
	for name := range cfg.TestGroups {
		knownGroups = append(knownGroups, name)
	}
	sort.Strings(knownGroups)

	knownScripts := make([]string, 0, len(cfg.Scripts))
	for name := range cfg.Scripts {
		knownScripts = append(knownScripts, name)
	}
	sort.Strings(knownScripts)

	var collection ConfigErrorCollection
	for profileName, p := range cfg.Profiles {
		table := fmt.Sprintf("profile.%s", profileName)
		for i, ov := range p.Overrides {
			if ov.Group == "" {
				continue
			}
			if _, ok := cfg.TestGroups[ov.Group]; !ok {
				collection.Add(ConfigError{
					Table:       table,
					Key:         fmt.Sprintf("overrides[%d].group", i),
					ErrorType:   "unknown-test-group",
					Message:     fmt.Sprintf("override references undefined test group %q", ov.Group),
					Suggestions: knownGroups,
				})
			}
		}
		for i, id := range p.SetupScripts {
			if _, ok := cfg.Scripts[id]; !ok {
				collection.Add(ConfigError{
					Table:       table,
					Key:         fmt.Sprintf("scripts[%d]", i),
					ErrorType:   "unknown-setup-script",
					Message:     fmt.Sprintf("profile references undefined setup script %q", id),
					Suggestions: knownScripts,
				})
			}
		}
	}
	if collection.HasErrors() {
		return &collection
	}
	return nil
}

// ValidateVersionRequirement checks that runningVersion satisfies the
// config's [nextest.version] required field (a minimum, not an exact
// match). An empty requirement is always satisfied.
func ValidateVersionRequirement(req VersionRequirement, runningVersion string) error {
	if req.Required == "" {
		return nil
	}
	want, err := parseVersion(req.Required)
	if err != nil {
		return err
	}
	have, err := parseVersion(runningVersion)
	if err != nil {
		return err
	}
	if have.less(want) {
		return fmt.Errorf("config requires nextrunner >= %s, running %s", req.Required, runningVersion)
	}
	return nil
}
