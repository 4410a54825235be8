package diagnostic

import (
	"encoding/json"
	"testing"

	"github.com/perfgo/seacan/cargomsg"
	"github.com/perfgo/seacan/model"
	"github.com/stretchr/testify/require"
)

func compilerMessage(payload string) *cargomsg.CompilerMessage {
	return &cargomsg.CompilerMessage{
		PackageID: model.PackageID{Repr: "hello_world 0.1.0 (path+file:///src/hello_world)"},
		Target:    model.Target{Name: "hello_world", Kind: []string{"lib"}},
		Payload:   json.RawMessage(payload),
	}
}

const mismatchedTypesPayload = `{
  "message": "mismatched types",
  "code": {"code": "E0308", "explanation": "Expected type did not match the received type.\n"},
  "level": "error",
  "spans": [
    {"file_name": "src/lib.rs", "byte_start": 40, "byte_end": 47, "line_start": 3, "line_end": 3, "column_start": 18, "column_end": 25, "is_primary": false, "label": "expected due to this", "suggested_replacement": null},
    {"file_name": "src/lib.rs", "byte_start": 50, "byte_end": 57, "line_start": 3, "line_end": 3, "column_start": 28, "column_end": 35, "is_primary": true, "label": "expected ` + "`u32`" + `, found ` + "`&str`" + `", "suggested_replacement": null}
  ],
  "children": [],
  "rendered": "\u001b[0m\u001b[1m\u001b[38;5;9merror[E0308]\u001b[0m\u001b[0m\u001b[1m: mismatched types\u001b[0m\n"
}`

const unusedVariablePayload = `{
  "message": "unused variable: ` + "`x`" + `",
  "code": {"code": "unused_variables", "explanation": null},
  "level": "warning",
  "spans": [
    {"file_name": "src/main.rs", "line_start": 2, "line_end": 2, "column_start": 9, "column_end": 10, "is_primary": true, "label": null, "suggested_replacement": null}
  ],
  "children": [
    {"message": "` + "`#[warn(unused_variables)]`" + ` on by default", "code": null, "level": "note", "spans": [], "children": [], "rendered": null},
    {"message": "if this is intentional, prefix it with an underscore", "code": null, "level": "help", "spans": [
      {"file_name": "src/main.rs", "line_start": 2, "line_end": 2, "column_start": 9, "column_end": 10, "is_primary": true, "label": null, "suggested_replacement": "_x"}
    ], "children": [], "rendered": null}
  ],
  "rendered": "warning: unused variable: ` + "`x`" + `\n"
}`

func TestEnrich_MismatchedTypes(t *testing.T) {
	d := New().Enrich(compilerMessage(mismatchedTypesPayload))

	require.Equal(t, model.SeverityError, d.Severity)
	require.Equal(t, "E0308", d.Code)
	require.Equal(t, "mismatched types", d.Message)
	require.Equal(t, &model.Location{File: "src/lib.rs", Line: 3, Column: 28}, d.Location)
	require.Equal(t, "src/lib.rs:3:28: mismatched types: expected `u32`, found `&str`", d.Rendered)
	require.Equal(t, "error[E0308]: mismatched types\n", d.Compiler)
	require.JSONEq(t, mismatchedTypesPayload, string(d.Raw))
	require.Equal(t, "hello_world", d.Target.Name)
	require.Equal(t, "hello_world", d.PackageID.Name())
}

func TestEnrich_UnusedVariableWithSuggestion(t *testing.T) {
	d := New().Enrich(compilerMessage(unusedVariablePayload))

	require.Equal(t, model.SeverityWarning, d.Severity)
	require.False(t, d.IsError())
	require.Equal(t, "if this is intentional, prefix it with an underscore: `_x`", d.Suggestion)
	require.Equal(t, "src/main.rs:2:9: variable `x` is never used\n  help: if this is intentional, prefix it with an underscore: `_x`", d.Rendered)
}

func TestEnrich_Rules(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "unresolved value",
			payload: `{"message":"cannot find value ` + "`fooo`" + ` in this scope","code":{"code":"E0425"},"level":"error","spans":[{"file_name":"src/lib.rs","line_start":7,"column_start":5,"is_primary":true,"label":"not found in this scope"}],"children":[]}`,
			want:    "src/lib.rs:7:5: unresolved value `fooo`",
		},
		{
			name:    "unresolved derive macro",
			payload: `{"message":"cannot find derive macro ` + "`Serialize`" + ` in this scope","level":"error","spans":[],"children":[]}`,
			want:    "unresolved derive macro `Serialize`",
		},
		{
			name:    "undeclared type",
			payload: `{"message":"failed to resolve: use of undeclared type ` + "`HashMap`" + `","code":{"code":"E0433"},"level":"error","spans":[{"file_name":"src/lib.rs","line_start":1,"column_start":9,"is_primary":true}],"children":[{"message":"consider importing this struct","level":"help","spans":[],"children":[]}]}`,
			want:    "src/lib.rs:1:9: unresolved name `HashMap`\n  help: consider importing this struct",
		},
		{
			name:    "unresolved import",
			payload: `{"message":"unresolved import ` + "`foo::bar`" + `","code":{"code":"E0432"},"level":"error","spans":[{"file_name":"src/lib.rs","line_start":1,"column_start":5,"is_primary":true,"label":"no ` + "`bar`" + ` in ` + "`foo`" + `"}],"children":[]}`,
			want:    "src/lib.rs:1:5: unresolved import `foo::bar` (no `bar` in `foo`)",
		},
		{
			name:    "missing trait items",
			payload: `{"message":"not all trait items implemented, missing: ` + "`fmt`" + `","code":{"code":"E0046"},"level":"error","spans":[{"file_name":"src/lib.rs","line_start":10,"column_start":1,"is_primary":true,"label":"missing ` + "`fmt`" + ` in implementation"}],"children":[]}`,
			want:    "src/lib.rs:10:1: impl is missing trait items: `fmt`",
		},
		{
			name:    "mismatched types from note",
			payload: `{"message":"mismatched types","level":"error","spans":[{"file_name":"src/lib.rs","line_start":4,"column_start":2,"is_primary":true,"label":null}],"children":[{"message":"expected struct ` + "`String`" + `, found ` + "`&str`" + `","level":"note","spans":[],"children":[]}]}`,
			want:    "src/lib.rs:4:2: mismatched types: expected struct `String`, found `&str`",
		},
		{
			name:    "mismatched types without detail falls back",
			payload: `{"message":"mismatched types","level":"error","spans":[{"file_name":"src/lib.rs","line_start":4,"column_start":2,"is_primary":true}],"children":[]}`,
			want:    "src/lib.rs:4:2: mismatched types",
		},
		{
			name:    "unknown shape keeps message verbatim",
			payload: `{"message":"this function takes 2 arguments but 1 argument was supplied","code":{"code":"E0061"},"level":"error","spans":[{"file_name":"src/lib.rs","line_start":9,"column_start":13,"is_primary":true}],"children":[]}`,
			want:    "src/lib.rs:9:13: this function takes 2 arguments but 1 argument was supplied",
		},
		{
			name:    "no spans",
			payload: `{"message":"aborting due to 2 previous errors","level":"error","spans":[],"children":[]}`,
			want:    "aborting due to 2 previous errors",
		},
	}

	enricher := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := enricher.Enrich(compilerMessage(tt.payload))
			require.Equal(t, tt.want, d.Rendered)
			require.JSONEq(t, tt.payload, string(d.Raw))
		})
	}
}

func TestEnrich_Severity(t *testing.T) {
	tests := []struct {
		level string
		want  model.Severity
	}{
		{level: "error", want: model.SeverityError},
		{level: "error: internal compiler error", want: model.SeverityError},
		{level: "warning", want: model.SeverityWarning},
		{level: "note", want: model.SeverityNote},
		{level: "failure-note", want: model.SeverityNote},
	}

	for _, tt := range tests {
		d := New().Enrich(compilerMessage(`{"message":"m","level":"` + tt.level + `","spans":[],"children":[]}`))
		require.Equal(t, tt.want, d.Severity, tt.level)
	}
}

func TestEnrich_AbortingSummaryIsNote(t *testing.T) {
	payload := `{"message":"aborting due to 1 previous error; 1 warning emitted","level":"error","spans":[],"children":[]}`
	d := New().Enrich(compilerMessage(payload))
	require.Equal(t, model.SeverityNote, d.Severity)
	require.JSONEq(t, payload, string(d.Raw))

	// A spanned error with the same wording is a real error.
	d = New().Enrich(compilerMessage(`{"message":"aborting due to x","level":"error","spans":[{"file_name":"src/lib.rs","line_start":1,"column_start":1,"is_primary":true}],"children":[]}`))
	require.Equal(t, model.SeverityError, d.Severity)
}

func TestEnrich_UndecodablePayload(t *testing.T) {
	d := New().Enrich(compilerMessage(`"just a string"`))
	require.Equal(t, model.SeverityError, d.Severity)
	require.Equal(t, `"just a string"`, d.Rendered)
	require.Equal(t, `"just a string"`, string(d.Raw))

	d = New().Enrich(compilerMessage(`{"level":"warning"}`))
	require.Equal(t, model.SeverityError, d.Severity)
	require.Equal(t, `{"level":"warning"}`, string(d.Raw))
}

func TestEnrich_CustomRulesOrder(t *testing.T) {
	first := Rule{Name: "first", Render: func(*RustcDiagnostic, string) (string, bool) { return "first", true }}
	second := Rule{Name: "second", Render: func(*RustcDiagnostic, string) (string, bool) { return "second", true }}

	d := NewWithRules(first, second).Enrich(compilerMessage(`{"message":"m","level":"error","spans":[],"children":[]}`))
	require.Equal(t, "first", d.Rendered)

	d = NewWithRules().Enrich(compilerMessage(unusedVariablePayload))
	require.Contains(t, d.Rendered, "src/main.rs:2:9: unused variable: `x`")
}
