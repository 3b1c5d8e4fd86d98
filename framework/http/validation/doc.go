// Package validation validates flat string input, such as query strings,
// against pipe-separated rules.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "pageNumber": "1",
//	    "pageSize":   "25",
//	}, validation.Rules{
//	    "pageNumber": "required|integer|gte:1",
//	    "pageSize":   "nullable|integer|gte:1|lte:100",
//	})
//
//	if v.Fails() {
//	    // JSON: {"errors": {"field": ["message1", "message2"]}}
//	}
//
// Fields are validated in name order; each field stops at its first failing
// rule.
//
// # Available Rules
//
// Presence:
//   - required  : field must be present and non-empty
//   - nullable, sometimes : skip the remaining rules when the field is empty
//
// Strings:
//   - string, min:n, max:n (UTF-8 characters), in:a,b,c, regex:pattern
//
// Numbers:
//   - numeric, integer, boolean
//   - gt:n, gte:n, lt:n, lte:n
//
// Dates (RFC 3339 or YYYY-MM-DD):
//   - date
//   - before_or_equal:other : not later than the date in field other
//   - after_or_equal:other  : not earlier than the date in field other
//
// Comparisons against a missing or malformed other field pass.
package validation
