package model

import (
	"encoding/json"
	"fmt"
)

// Severity of a build diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Location points at the primary source span of a diagnostic.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// BuildDiagnostic is an enriched compiler or builder message. Rendered is
// the short human readable form, Compiler the compiler's own rendering with
// ANSI escapes stripped, and Raw is always the untouched payload.
type BuildDiagnostic struct {
	Severity   Severity        `json:"severity"`
	Code       string          `json:"code,omitempty"`
	Message    string          `json:"message"`
	Rendered   string          `json:"rendered"`
	Location   *Location       `json:"location,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
	Compiler   string          `json:"compiler,omitempty"`
	PackageID  PackageID       `json:"package_id,omitempty"`
	Target     *Target         `json:"target,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

func (d BuildDiagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Rendered)
}

// IsError reports whether the diagnostic fails the build.
func (d BuildDiagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// CountErrors returns the number of error diagnostics.
func CountErrors(diagnostics []BuildDiagnostic) int {
	n := 0
	for _, d := range diagnostics {
		if d.IsError() {
			n++
		}
	}
	return n
}
