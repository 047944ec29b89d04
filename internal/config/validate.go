// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a Config and returns a list of issues (errors
// and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path is a dotted path into the config (e.g. "manifest.kind"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config.
//
// It does not mutate the config. Callers may decide whether to treat
// warnings as fatal or not.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Input) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input",
			Message:  "input path must not be empty",
		})
	}
	if strings.TrimSpace(c.Output) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output",
			Message:  "output path must not be empty",
		})
	}
	if c.Input != "" && c.Input == c.Output {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output",
			Message:  "output path must differ from input path; the input is read while the output is written",
		})
	}
	if strings.TrimSpace(c.Samples) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "samples",
			Message:  "samples path must not be empty",
		})
	}
	if c.Workers < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "workers",
			Message:  fmt.Sprintf("workers=%d; at least one transform worker is required", c.Workers),
		})
	}
	if c.QueueCap < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "queue_cap",
			Message:  "queue_cap must not be negative",
		})
	}
	if c.ProgressEvery < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "progress_every",
			Message:  "progress_every must not be negative",
		})
	}
	if strings.ContainsAny(c.Marker, "\t\n") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "marker",
			Message:  "marker must be a single column name without tabs or newlines",
		})
	}
	if c.CompressOutput && !strings.HasSuffix(c.Output, ".gz") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output",
			Message:  "compressed output without a .gz suffix; downstream tools may not recognize it",
		})
	}

	issues = append(issues, validateManifest(c.Manifest)...)

	return issues
}

// validateManifest validates the optional manifest store settings.
func validateManifest(m ManifestConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(m.Kind) == "" {
		if strings.TrimSpace(m.DSN) != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "manifest.dsn",
				Message:  "manifest.dsn is set but manifest.kind is empty; no manifest will be recorded",
			})
		}
		return issues
	}

	// Known backend kinds. Unknown kinds are warnings (for forward
	// compatibility with externally registered backends).
	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[m.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "manifest.kind",
			Message:  fmt.Sprintf("unknown manifest kind %q; ensure a matching backend is registered", m.Kind),
		})
	}
	if strings.TrimSpace(m.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "manifest.dsn",
			Message:  "manifest.dsn must not be empty when a manifest kind is selected",
		})
	}

	return issues
}
