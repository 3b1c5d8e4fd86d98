package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autocrud/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		assert.False(t, v.Fails(), "errors: %+v", v.Errors().Bag)
	})
}

func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		require.True(t, v.Fails(), "expected failure on %q", field)
		assert.NotEmpty(t, v.Errors().First(field), "errors: %+v", v.Errors().Bag)
	})
}

// ── presence ─────────────────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"name": "required"}

	pass(t, "non-empty value", map[string]string{"name": "Alice"}, r)
	fail(t, "empty string", "name", map[string]string{"name": ""}, r)
	fail(t, "whitespace only", "name", map[string]string{"name": "   "}, r)
	fail(t, "missing key", "name", map[string]string{}, r)

	v := validation.Make(map[string]string{}, r)
	require.True(t, v.Fails())
	assert.Equal(t, "The name field is required.", v.Errors().First("name"))
}

func TestValidation_Nullable(t *testing.T) {
	r := validation.Rules{"size": "nullable|integer"}

	pass(t, "absent", map[string]string{}, r)
	pass(t, "present and valid", map[string]string{"size": "4"}, r)
	fail(t, "present and invalid", "size", map[string]string{"size": "four"}, r)
}

// ── numbers ──────────────────────────────────────────────────────────────────

func TestValidation_NumericBounds(t *testing.T) {
	r := validation.Rules{"pageSize": "integer|gte:1|lte:100"}

	pass(t, "lower bound", map[string]string{"pageSize": "1"}, r)
	pass(t, "upper bound", map[string]string{"pageSize": "100"}, r)
	fail(t, "zero", "pageSize", map[string]string{"pageSize": "0"}, r)
	fail(t, "too large", "pageSize", map[string]string{"pageSize": "101"}, r)
	fail(t, "not a number", "pageSize", map[string]string{"pageSize": "ten"}, r)

	v := validation.Make(map[string]string{"pageSize": "101"}, r)
	require.True(t, v.Fails())
	assert.Equal(t, "The pageSize must be less than or equal to 100.", v.Errors().First("pageSize"))
}

func TestValidation_Boolean(t *testing.T) {
	r := validation.Rules{"doCount": "boolean"}
	for _, ok := range []string{"true", "FALSE", "1", "0", "yes", "No"} {
		pass(t, ok, map[string]string{"doCount": ok}, r)
	}
	fail(t, "maybe", "doCount", map[string]string{"doCount": "maybe"}, r)
}

// ── strings ──────────────────────────────────────────────────────────────────

func TestValidation_Strings(t *testing.T) {
	pass(t, "min", map[string]string{"q": "abc"}, validation.Rules{"q": "min:3"})
	fail(t, "min", "q", map[string]string{"q": "ab"}, validation.Rules{"q": "min:3"})
	fail(t, "max", "q", map[string]string{"q": "abcdef"}, validation.Rules{"q": "max:5"})
	pass(t, "in", map[string]string{"type": "csv"}, validation.Rules{"type": "in:json, csv, yaml"})
	fail(t, "in", "type", map[string]string{"type": "xml"}, validation.Rules{"type": "in:json,csv,yaml"})
	pass(t, "regex", map[string]string{"code": "AB12"}, validation.Rules{"code": "regex:^[A-Z]+[0-9]+$"})
	fail(t, "regex", "code", map[string]string{"code": "12AB"}, validation.Rules{"code": "regex:^[A-Z]+[0-9]+$"})
}

// ── dates ────────────────────────────────────────────────────────────────────

func TestValidation_Dates(t *testing.T) {
	r := validation.Rules{
		"from": "nullable|date|before_or_equal:to",
		"to":   "nullable|date",
	}

	pass(t, "ordered", map[string]string{"from": "2024-01-01", "to": "2024-02-01T00:00:00Z"}, r)
	pass(t, "equal", map[string]string{"from": "2024-01-01", "to": "2024-01-01"}, r)
	pass(t, "one side missing", map[string]string{"from": "2024-01-01"}, r)
	fail(t, "reversed", "from", map[string]string{"from": "2024-03-01", "to": "2024-02-01"}, r)
	fail(t, "malformed", "to", map[string]string{"to": "yesterday"}, r)

	after := validation.Rules{"to": "after_or_equal:from"}
	fail(t, "after_or_equal", "to", map[string]string{"from": "2024-03-01", "to": "2024-02-01"}, after)
}

func TestParseDate(t *testing.T) {
	d, err := validation.ParseDate("2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), d)

	d, err = validation.ParseDate("2024-06-30T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.UTC().Hour())

	_, err = validation.ParseDate("30/06/2024")
	assert.Error(t, err)
}

// ── error bag ────────────────────────────────────────────────────────────────

func TestErrors_FieldsSorted(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"b": "required", "a": "required"})
	require.True(t, v.Fails())
	assert.Equal(t, []string{"a", "b"}, v.Errors().Fields())
	assert.True(t, v.Fails(), "repeated calls do not duplicate errors")
	assert.Len(t, v.Errors().Bag["a"], 1)
}
