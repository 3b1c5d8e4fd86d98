package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors by field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

// Add records msg against field.
func (e *Errors) Add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the fields with errors, sorted.
func (e *Errors) Fields() []string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"pageSize": "nullable|integer|gte:1|lte:100"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.ran {
		v.validate()
		v.ran = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ParseDate reads an RFC 3339 timestamp or a plain YYYY-MM-DD date (UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		value := v.data[field]
		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")
			if !v.applyRule(field, value, name, param) {
				break // bail on the first failure
			}
		}
	}
}

var booleans = map[string]bool{"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true}

// applyRule returns true if validation of field should continue.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			v.errors.Add(field, fmt.Sprintf("The %s field is required.", field))
			return false
		}

	case "nullable", "sometimes":
		// Remaining rules only apply to present values.
		if value == "" {
			return false
		}

	case "string":

	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			v.errors.Add(field, fmt.Sprintf("The %s must be a number.", field))
			return false
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			v.errors.Add(field, fmt.Sprintf("The %s must be an integer.", field))
			return false
		}

	case "boolean":
		if !booleans[strings.ToLower(value)] {
			v.errors.Add(field, fmt.Sprintf("The %s field must be true or false.", field))
			return false
		}

	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			v.errors.Add(field, fmt.Sprintf("The %s must be at least %d characters.", field, n))
			return false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			v.errors.Add(field, fmt.Sprintf("The %s may not be greater than %d characters.", field, n))
			return false
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if strings.TrimSpace(a) == value {
				return true
			}
		}
		v.errors.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
		return false

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			v.errors.Add(field, fmt.Sprintf("The %s format is invalid.", field))
			return false
		}

	case "gt", "gte", "lt", "lte":
		return v.compareNumber(field, value, rule, param)

	case "date":
		if _, err := ParseDate(value); err != nil {
			v.errors.Add(field, fmt.Sprintf("The %s is not a valid date.", field))
			return false
		}

	case "before_or_equal", "after_or_equal":
		return v.compareDate(field, value, rule, param)
	}

	return true
}

func (v *Validator) compareNumber(field, value, rule, param string) bool {
	f, _ := strconv.ParseFloat(value, 64)
	t, _ := strconv.ParseFloat(param, 64)
	var ok bool
	var msg string
	switch rule {
	case "gt":
		ok, msg = f > t, "greater than"
	case "gte":
		ok, msg = f >= t, "greater than or equal to"
	case "lt":
		ok, msg = f < t, "less than"
	case "lte":
		ok, msg = f <= t, "less than or equal to"
	}
	if !ok {
		v.errors.Add(field, fmt.Sprintf("The %s must be %s %s.", field, msg, param))
	}
	return ok
}

// compareDate checks value against the date in field param. Either side
// missing or malformed passes; the date rule reports malformed values.
func (v *Validator) compareDate(field, value, rule, param string) bool {
	other, ok := v.data[param]
	if !ok || other == "" || value == "" {
		return true
	}
	a, errA := ParseDate(value)
	b, errB := ParseDate(other)
	if errA != nil || errB != nil {
		return true
	}
	if rule == "before_or_equal" && a.After(b) {
		v.errors.Add(field, fmt.Sprintf("The %s must be a date before or equal to %s.", field, param))
		return false
	}
	if rule == "after_or_equal" && a.Before(b) {
		v.errors.Add(field, fmt.Sprintf("The %s must be a date after or equal to %s.", field, param))
		return false
	}
	return true
}
