// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
// value.go implements the typed argument values passed to tools.
package tools

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/rigagent/internal/util"
)

// =============================================================================
// VALUE KINDS
// =============================================================================

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindString - a text value
	KindString Kind = iota

	// KindNumber - a numeric value (JSON numbers decode as float64)
	KindNumber

	// KindBool - a boolean value
	KindBool
)

// String returns the string representation of a kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// =============================================================================
// TAGGED VALUE
// =============================================================================

// Value is a tagged union holding a single tool argument. Model output
// arrives as JSON; strings, numbers and booleans keep their native kind,
// while every other JSON shape (arrays, objects, null) degrades to its
// string representation. A closed set of kinds keeps dispatch code free of
// open-ended type switches on interface{}.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue wraps a number.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// FromJSON converts a decoded JSON value into a Value.
func FromJSON(raw interface{}) Value {
	switch v := raw.(type) {
	case string:
		return StringValue(v)
	case float64:
		return NumberValue(v)
	case bool:
		return BoolValue(v)
	case nil:
		return StringValue("")
	default:
		// Arrays and objects degrade to their JSON text form.
		data, err := json.Marshal(v)
		if err != nil {
			return StringValue("")
		}
		return StringValue(string(data))
	}
}

// Kind returns which variant the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// String renders the value as text regardless of kind.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// Number returns the numeric value and whether the value holds a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the boolean value and whether the value holds a boolean.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// MarshalJSON serializes the value in its native JSON kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

// =============================================================================
// ARGUMENT MAP
// =============================================================================

// Args maps parameter names to typed values.
type Args map[string]Value

// ArgsFromJSON converts a decoded JSON object into an argument map.
func ArgsFromJSON(m map[string]interface{}) Args {
	args := make(Args, len(m))
	for k, v := range m {
		args[k] = FromJSON(v)
	}
	return args
}

// GetString gets a string argument with a default value. Non-string kinds
// are rendered to text, so a model that quotes nothing still works.
func (a Args) GetString(name, defaultVal string) string {
	if v, ok := a[name]; ok {
		if s := v.String(); s != "" {
			return s
		}
	}
	return defaultVal
}

// GetInt gets an integer argument with a default value. String values that
// parse as integers are accepted.
func (a Args) GetInt(name string, defaultVal int) int {
	v, ok := a[name]
	if !ok {
		return defaultVal
	}
	if f, isNum := v.Number(); isNum {
		return int(f)
	}
	if v.Kind() == KindString {
		if n, err := strconv.Atoi(strings.TrimSpace(v.str)); err == nil {
			return n
		}
	}
	return defaultVal
}

// GetBool gets a boolean argument with a default value. The strings "true"
// and "false" are accepted for models that quote everything.
func (a Args) GetBool(name string, defaultVal bool) bool {
	v, ok := a[name]
	if !ok {
		return defaultVal
	}
	if b, isBool := v.Bool(); isBool {
		return b
	}
	if v.Kind() == KindString {
		if b, err := strconv.ParseBool(strings.TrimSpace(v.str)); err == nil {
			return b
		}
	}
	return defaultVal
}

// Has reports whether an argument is present.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Summary renders arguments as "k=v" pairs in sorted key order, each value
// truncated for display. Used in approval prompts and history output.
func (a Args) Summary(maxValueRunes int) string {
	if len(a) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		val := strings.ReplaceAll(a[k].String(), "\n", " ")
		if maxValueRunes > 0 {
			val = util.TruncateRunes(val, maxValueRunes)
		}
		sb.WriteString(val)
	}
	return sb.String()
}
