// Package diagnostic turns rustc JSON diagnostics and cargo's own stderr
// into short BuildDiagnostic renderings. Enrichment is cosmetic: the raw
// payload is always kept next to the rendering.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/perfgo/seacan/cargomsg"
	"github.com/perfgo/seacan/model"
)

// Rule recognizes one shape of rustc diagnostic and renders a one-line
// summary for it. Render returns false when the rule does not apply.
type Rule struct {
	Name   string
	Render func(d *RustcDiagnostic, message string) (string, bool)
}

// Enricher applies rules in order; the first rule that applies wins.
type Enricher struct {
	rules []Rule
}

// New creates an enricher with the default rules.
func New() *Enricher {
	return NewWithRules(DefaultRules()...)
}

// NewWithRules creates an enricher with a custom rule list.
func NewWithRules(rules ...Rule) *Enricher {
	return &Enricher{rules: append([]Rule(nil), rules...)}
}

// Enrich converts a compiler message into a diagnostic. It never fails: a
// payload that cannot be decoded is reported as an error diagnostic
// carrying the payload text.
func (e *Enricher) Enrich(msg *cargomsg.CompilerMessage) model.BuildDiagnostic {
	target := msg.Target
	d := model.BuildDiagnostic{
		PackageID: msg.PackageID,
		Target:    &target,
		Raw:       append(json.RawMessage(nil), msg.Payload...),
	}

	var rd RustcDiagnostic
	if err := json.Unmarshal(msg.Payload, &rd); err != nil || rd.Message == "" {
		d.Severity = model.SeverityError
		d.Message = strings.TrimSpace(ansi.Strip(string(msg.Payload)))
		d.Rendered = d.Message
		return d
	}

	d.Severity = severityOf(rd.Level)
	if rd.isSummary() {
		d.Severity = model.SeverityNote
	}
	d.Code = rd.CodeString()
	d.Message = rd.Message
	d.Location = rd.location()
	d.Suggestion = rd.suggestion()
	if rd.Rendered != nil {
		d.Compiler = ansi.Strip(*rd.Rendered)
	}

	summary := d.Message
	text := ansi.Strip(rd.Message)
	for _, rule := range e.rules {
		if s, ok := rule.Render(&rd, text); ok {
			summary = s
			break
		}
	}

	d.Rendered = render(d.Location, summary, d.Suggestion)
	return d
}

func render(loc *model.Location, summary, suggestion string) string {
	var b strings.Builder
	if loc != nil {
		b.WriteString(loc.String())
		b.WriteString(": ")
	}
	b.WriteString(summary)
	if suggestion != "" {
		b.WriteString("\n  help: ")
		b.WriteString(suggestion)
	}
	return b.String()
}

var (
	expectedFoundRE    = regexp.MustCompile(`expected (.+?), found (.+)`)
	cannotFindRE       = regexp.MustCompile("^cannot find (\\w+(?: \\w+)?) `([^`]+)` in ")
	undeclaredRE       = regexp.MustCompile("^failed to resolve: use of undeclared (?:type|crate or module|type or module) `([^`]+)`")
	unresolvedImportRE = regexp.MustCompile(`^unresolved imports? (.+)$`)
	unusedVariableRE   = regexp.MustCompile("^unused variable: `([^`]+)`$")
	missingTraitRE     = regexp.MustCompile(`^not all trait items implemented, missing: (.+)$`)
)

// DefaultRules returns the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "mismatched-types", Render: mismatchedTypes},
		{Name: "unresolved-name", Render: unresolvedName},
		{Name: "unresolved-import", Render: unresolvedImport},
		{Name: "unused-variable", Render: unusedVariable},
		{Name: "missing-trait-items", Render: missingTraitMethod},
	}
}

func mismatchedTypes(d *RustcDiagnostic, message string) (string, bool) {
	if d.CodeString() != "E0308" && message != "mismatched types" {
		return "", false
	}
	candidates := []string{ansi.Strip(d.PrimaryLabel())}
	for _, child := range d.Children {
		candidates = append(candidates, ansi.Strip(child.Message))
	}
	for _, text := range candidates {
		if m := expectedFoundRE.FindStringSubmatch(text); m != nil {
			return fmt.Sprintf("mismatched types: expected %s, found %s", m[1], m[2]), true
		}
	}
	return "", false
}

func unresolvedName(_ *RustcDiagnostic, message string) (string, bool) {
	if m := cannotFindRE.FindStringSubmatch(message); m != nil {
		return fmt.Sprintf("unresolved %s `%s`", m[1], m[2]), true
	}
	if m := undeclaredRE.FindStringSubmatch(message); m != nil {
		return fmt.Sprintf("unresolved name `%s`", m[1]), true
	}
	return "", false
}

func unresolvedImport(d *RustcDiagnostic, message string) (string, bool) {
	m := unresolvedImportRE.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	summary := "unresolved import " + m[1]
	if label := ansi.Strip(d.PrimaryLabel()); label != "" {
		summary += " (" + label + ")"
	}
	return summary, true
}

func unusedVariable(_ *RustcDiagnostic, message string) (string, bool) {
	m := unusedVariableRE.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("variable `%s` is never used", m[1]), true
}

func missingTraitMethod(_ *RustcDiagnostic, message string) (string, bool) {
	m := missingTraitRE.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return "impl is missing trait items: " + m[1], true
}
