package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsFrom(m map[string]any) FieldResolver {
	return func(map[string]any) map[string]any { return m }
}

func TestRender_Basic(t *testing.T) {
	got := Render("Is {{company}} based in {{state}}?", nil,
		fieldsFrom(map[string]any{"company": "Acme", "state": "OH"}))
	assert.Equal(t, "Is Acme based in OH?", got)
}

func TestRender_UnresolvedPlaceholderIsEmpty(t *testing.T) {
	got := Render("Hello {{missing}}!", nil, fieldsFrom(map[string]any{}))
	assert.Equal(t, "Hello !", got)
}

func TestRender_LowercasedFieldLookup(t *testing.T) {
	// Placeholder identifiers are lowercased for the field-map lookup.
	got := Render("{{Company}}", nil, fieldsFrom(map[string]any{"company": "Acme"}))
	assert.Equal(t, "Acme", got)
}

func TestRender_RawRecordFallbackIsVerbatim(t *testing.T) {
	record := map[string]any{"NumBeds": 250}
	got := Render("{{NumBeds}} beds", record, fieldsFrom(map[string]any{}))
	assert.Equal(t, "250 beds", got)

	// The raw fallback does NOT lowercase: a lowercased placeholder misses
	// the raw key and renders empty.
	got = Render("{{numbeds}} beds", record, fieldsFrom(map[string]any{}))
	assert.Equal(t, " beds", got)
}

func TestRender_FieldMapWinsOverRawRecord(t *testing.T) {
	record := map[string]any{"name": "raw"}
	got := Render("{{name}}", record, fieldsFrom(map[string]any{"name": "resolved"}))
	assert.Equal(t, "resolved", got)
}

func TestRender_SinglePassNoRecursion(t *testing.T) {
	got := Render("{{a}}", nil, fieldsFrom(map[string]any{"a": "{{b}}", "b": "nope"}))
	assert.Equal(t, "{{b}}", got)
}

func TestRender_UnterminatedPlaceholderLeftLiteral(t *testing.T) {
	got := Render("start {{broken", nil, fieldsFrom(map[string]any{"broken": "x"}))
	assert.Equal(t, "start {{broken", got)
}

func TestRender_NilResolver(t *testing.T) {
	got := Render("{{x}} and {{y}}", map[string]any{"x": "raw"}, nil)
	assert.Equal(t, "raw and ", got)
}

func TestParseColumnType(t *testing.T) {
	for _, s := range []string{"text", "Boolean", " NUMBER "} {
		_, err := ParseColumnType(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseColumnType("date")
	require.Error(t, err)
}

func TestSystemPrompt_Composition(t *testing.T) {
	got := SystemPrompt(ColumnBoolean, "")
	assert.Contains(t, got, "yes or no")
	assert.NotContains(t, got, "\n\n")

	got = SystemPrompt(ColumnNumber, "--- Context ---\ndetails")
	assert.Contains(t, got, "single number")
	assert.Contains(t, got, "--- Context ---")
}

func TestColumnTypeInstruction(t *testing.T) {
	assert.Contains(t, ColumnText.Instruction(), "concise")
	assert.Contains(t, ColumnBoolean.Instruction(), "yes or no")
	assert.Contains(t, ColumnNumber.Instruction(), "single number")
}
