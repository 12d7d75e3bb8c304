// Package validate implements C6: per-series schema validation of raw
// add/change and delete records. Each series has a small table of field
// checkers composed from a handful of general-purpose predicate functions,
// rather than a schema-validation framework.
package validate

import (
	"encoding/json"
	"fmt"
)

const safeIntMax = 1<<53 - 1

// isSafeIntMin reports whether raw decodes to an integer n with min <= n <= safeIntMax.
func isSafeIntMin(raw json.RawMessage, min int64) error {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("not a number: %s", raw)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("not an integer: %s", n)
	}
	if i < min || i > safeIntMax {
		return fmt.Errorf("integer %d out of range [%d, %d]", i, min, safeIntMax)
	}
	return nil
}

// isNonEmptyString reports whether raw decodes to a non-empty string.
func isNonEmptyString(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("not a string: %s", raw)
	}
	if s == "" {
		return fmt.Errorf("empty string")
	}
	return nil
}

// isString reports whether raw decodes to any string, empty allowed. Used for
// open-enum fields where any value is accepted.
func isString(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("not a string: %s", raw)
	}
	return nil
}

// isStringArray reports whether raw decodes to a JSON array of strings
// (open-enum lists: pos, field, misc, dialect, gloss, meanings, …).
func isStringArray(raw json.RawMessage) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		if err := isString(el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// isIntArrayMin reports whether raw decodes to a JSON array of integers each >= min.
func isIntArrayMin(raw json.RawMessage, min int64) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		if err := isSafeIntMin(el, min); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// isTrue reports whether raw decodes to the JSON literal true.
func isTrue(raw json.RawMessage) error {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("not a boolean: %s", raw)
	}
	if !b {
		return fmt.Errorf("must be true")
	}
	return nil
}

// isBool reports whether raw decodes to a JSON boolean.
func isBool(raw json.RawMessage) error {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("not a boolean: %s", raw)
	}
	return nil
}

// optional runs check only if the field is present in obj; absence is fine.
func optional(obj map[string]json.RawMessage, field string, check func(json.RawMessage) error) error {
	raw, ok := obj[field]
	if !ok {
		return nil
	}
	if err := check(raw); err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return nil
}

// required fails if the field is absent, then runs check.
func required(obj map[string]json.RawMessage, field string, check func(json.RawMessage) error) error {
	raw, ok := obj[field]
	if !ok {
		return fmt.Errorf("field %q: missing", field)
	}
	if err := check(raw); err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return nil
}

// zeroSentinelOr accepts either the integer 0 sentinel ("no metadata for
// the parallel entry" in a partitioned word record) or a value matching
// check.
func zeroSentinelOr(raw json.RawMessage, check func(json.RawMessage) error) error {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if n.String() == "0" {
			return nil
		}
		return fmt.Errorf("bare integer must be the 0 sentinel, got %s", n)
	}
	return check(raw)
}

// arrayOfSentinelOr runs check against every element of the array at raw,
// accepting the 0 sentinel in place of any element (via zeroSentinelOr).
func arrayOfSentinelOr(raw json.RawMessage, check func(json.RawMessage) error) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		if err := zeroSentinelOr(el, check); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
