// Package clierr provides structured error handling for the
// graphql-intel CLI: a UserError that carries what went wrong, why, and
// how to fix it, plus a consistent exit-code taxonomy across commands.
package clierr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for the CLI's own error categories.
const (
	ExitSuccess = 0

	// ExitConfig indicates a missing or invalid config file.
	ExitConfig = 1

	// ExitParse indicates a schema or document failed to parse.
	ExitParse = 2

	// ExitDiagnostics indicates the run completed but produced error-level
	// diagnostics (a lint or validation failure in project content, not a
	// tooling failure).
	ExitDiagnostics = 3

	// ExitInput indicates invalid CLI arguments or flags.
	ExitInput = 4

	// ExitNotFound indicates a referenced file or workspace root is missing.
	ExitNotFound = 6

	// ExitInternal indicates an unexpected error — a bug, not a bad input.
	ExitInternal = 10
)

// UserError is a CLI-facing error carrying a message, a cause, and a fix
// suggestion, plus the exit code a command should terminate with.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

// ConfigError wraps a config-loading failure (missing file, malformed
// YAML, a validation error from pkg/config.Config.Validate).
func ConfigError(cause string, err error) *UserError {
	return &UserError{
		Message:  "Cannot load configuration",
		Cause:    cause,
		Fix:      "Check the config file path and its YAML syntax",
		ExitCode: ExitConfig,
		Err:      err,
	}
}

// ParseError wraps a fatal parse failure that prevented a file from being
// loaded into the engine at all (distinct from a parse-error diagnostic,
// which the tolerant parser recovers from and still reports via
// file_diagnostics — see §4.2 Property 1).
func ParseError(path, cause string, err error) *UserError {
	return &UserError{
		Message:  fmt.Sprintf("Failed to read %s", path),
		Cause:    cause,
		Fix:      "Check that the file exists and is readable",
		ExitCode: ExitParse,
		Err:      err,
	}
}

// InputError wraps a bad CLI invocation (missing flag, unrecognized
// output format, ...).
func InputError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInput}
}

// NotFoundError wraps a missing workspace root or unresolvable file path.
func NotFoundError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNotFound}
}

// InternalError wraps an unexpected failure that indicates a bug rather
// than bad user input.
func InternalError(msg string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Fix:      "This is a bug. Please report it with a reproduction.",
		ExitCode: ExitInternal,
		Err:      err,
	}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders err for terminal display, colored unless noColor is set
// or NO_COLOR is present in the environment.
func (e *UserError) Format(noColor bool) string {
	original := color.NoColor
	defer func() { color.NoColor = original }()
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")
	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON is the machine-readable rendering of a UserError for --json mode.
type JSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts e to its JSON rendering.
func (e *UserError) ToJSON() JSON {
	return JSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// Fatal prints err (colored or JSON, per jsonOutput) and exits with its
// exit code. A nil err is a no-op. A non-UserError is wrapped as an
// internal error before printing, since a raw Go error reaching this far
// up the call stack was not anticipated by any command-level handler.
func Fatal(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	ue, ok := err.(*UserError)
	if !ok {
		ue = InternalError("Unexpected error", err)
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(os.Stderr, ue.Format(false))
	}
	os.Exit(ue.ExitCode)
}
