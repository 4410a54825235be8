package diagnostic

import (
	"strings"

	"github.com/perfgo/seacan/model"
)

// RustcDiagnostic is the JSON diagnostic rustc emits inside a cargo
// compiler-message.
type RustcDiagnostic struct {
	Message  string            `json:"message"`
	Code     *RustcCode        `json:"code"`
	Level    string            `json:"level"`
	Spans    []Span            `json:"spans"`
	Children []RustcDiagnostic `json:"children"`
	Rendered *string           `json:"rendered"`
}

// RustcCode identifies a diagnostic, e.g. E0308 or unused_variables.
type RustcCode struct {
	Code        string  `json:"code"`
	Explanation *string `json:"explanation"`
}

// Span is a region of source a diagnostic refers to.
type Span struct {
	FileName             string  `json:"file_name"`
	ByteStart            int     `json:"byte_start"`
	ByteEnd              int     `json:"byte_end"`
	LineStart            int     `json:"line_start"`
	LineEnd              int     `json:"line_end"`
	ColumnStart          int     `json:"column_start"`
	ColumnEnd            int     `json:"column_end"`
	IsPrimary            bool    `json:"is_primary"`
	Label                *string `json:"label"`
	SuggestedReplacement *string `json:"suggested_replacement"`
}

func (s Span) label() string {
	if s.Label == nil {
		return ""
	}
	return *s.Label
}

// CodeString returns the diagnostic code or "".
func (d *RustcDiagnostic) CodeString() string {
	if d.Code == nil {
		return ""
	}
	return d.Code.Code
}

// PrimarySpan returns the first primary span, falling back to the first
// span. It returns nil when the diagnostic has no spans.
func (d *RustcDiagnostic) PrimarySpan() *Span {
	for i := range d.Spans {
		if d.Spans[i].IsPrimary {
			return &d.Spans[i]
		}
	}
	if len(d.Spans) > 0 {
		return &d.Spans[0]
	}
	return nil
}

// PrimaryLabel returns the label of the primary span, or "".
func (d *RustcDiagnostic) PrimaryLabel() string {
	if span := d.PrimarySpan(); span != nil {
		return span.label()
	}
	return ""
}

func (d *RustcDiagnostic) location() *model.Location {
	span := d.PrimarySpan()
	if span == nil || span.FileName == "" {
		return nil
	}
	return &model.Location{
		File:   span.FileName,
		Line:   span.LineStart,
		Column: span.ColumnStart,
	}
}

// suggestion picks the first help child with a suggested replacement, or
// the first help child at all.
func (d *RustcDiagnostic) suggestion() string {
	var first string
	for _, child := range d.Children {
		if child.Level != "help" {
			continue
		}
		for _, span := range child.Spans {
			if span.SuggestedReplacement == nil {
				continue
			}
			if *span.SuggestedReplacement == "" {
				return child.Message
			}
			return child.Message + ": `" + *span.SuggestedReplacement + "`"
		}
		if first == "" {
			first = child.Message
		}
	}
	return first
}

// isSummary reports whether d is the trailing "aborting due to N previous
// errors" message rustc emits after the errors it counts.
func (d *RustcDiagnostic) isSummary() bool {
	return len(d.Spans) == 0 && strings.HasPrefix(d.Message, "aborting due to ")
}

func severityOf(level string) model.Severity {
	switch level {
	case "error", "error: internal compiler error":
		return model.SeverityError
	case "warning":
		return model.SeverityWarning
	default:
		return model.SeverityNote
	}
}
