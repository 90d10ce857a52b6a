// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the agentic tool system for rigagent.
package tools

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// VALUE CONVERSION TESTS
// =============================================================================

func TestFromJSON_NativeKinds(t *testing.T) {
	testCases := []struct {
		name     string
		raw      interface{}
		wantKind Kind
		wantStr  string
	}{
		{"string", "hello", KindString, "hello"},
		{"empty string", "", KindString, ""},
		{"integer number", float64(42), KindNumber, "42"},
		{"float number", 3.5, KindNumber, "3.5"},
		{"bool true", true, KindBool, "true"},
		{"bool false", false, KindBool, "false"},
		{"null degrades", nil, KindString, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := FromJSON(tc.raw)
			if v.Kind() != tc.wantKind {
				t.Errorf("Kind = %v, want %v", v.Kind(), tc.wantKind)
			}
			if v.String() != tc.wantStr {
				t.Errorf("String() = %q, want %q", v.String(), tc.wantStr)
			}
		})
	}
}

func TestFromJSON_CompositeDegradesToText(t *testing.T) {
	v := FromJSON([]interface{}{"a", float64(1)})
	if v.Kind() != KindString {
		t.Fatalf("array should degrade to string, got %v", v.Kind())
	}
	if v.String() != `["a",1]` {
		t.Errorf("array text = %q, want %q", v.String(), `["a",1]`)
	}

	v = FromJSON(map[string]interface{}{"k": "v"})
	if v.Kind() != KindString {
		t.Fatalf("object should degrade to string, got %v", v.Kind())
	}
	if v.String() != `{"k":"v"}` {
		t.Errorf("object text = %q, want %q", v.String(), `{"k":"v"}`)
	}
}

func TestValue_Accessors(t *testing.T) {
	if n, ok := NumberValue(7).Number(); !ok || n != 7 {
		t.Errorf("NumberValue(7).Number() = %v, %v", n, ok)
	}
	if _, ok := StringValue("7").Number(); ok {
		t.Error("string value should not report as number")
	}
	if b, ok := BoolValue(true).Bool(); !ok || !b {
		t.Errorf("BoolValue(true).Bool() = %v, %v", b, ok)
	}
	if _, ok := NumberValue(1).Bool(); ok {
		t.Error("number value should not report as bool")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	args := Args{
		"path":  StringValue("main.py"),
		"count": NumberValue(3),
		"force": BoolValue(true),
	}
	data, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["path"] != "main.py" {
		t.Errorf("path = %v", decoded["path"])
	}
	if decoded["count"] != float64(3) {
		t.Errorf("count = %v, want 3", decoded["count"])
	}
	if decoded["force"] != true {
		t.Errorf("force = %v, want true", decoded["force"])
	}
}

// =============================================================================
// ARGS TESTS
// =============================================================================

func TestArgs_Getters(t *testing.T) {
	args := ArgsFromJSON(map[string]interface{}{
		"path":    "a.txt",
		"count":   float64(5),
		"enabled": true,
		"numstr":  "12",
		"boolstr": "true",
	})

	if got := args.GetString("path", "x"); got != "a.txt" {
		t.Errorf("GetString(path) = %q", got)
	}
	if got := args.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("GetString(missing) = %q", got)
	}
	if got := args.GetInt("count", 0); got != 5 {
		t.Errorf("GetInt(count) = %d", got)
	}
	if got := args.GetInt("numstr", 0); got != 12 {
		t.Errorf("GetInt(numstr) = %d, want string coercion to 12", got)
	}
	if got := args.GetInt("path", 9); got != 9 {
		t.Errorf("GetInt(path) = %d, want default for non-numeric", got)
	}
	if got := args.GetBool("enabled", false); got != true {
		t.Errorf("GetBool(enabled) = %v", got)
	}
	if got := args.GetBool("boolstr", false); got != true {
		t.Errorf("GetBool(boolstr) = %v, want string coercion", got)
	}
	if !args.Has("path") || args.Has("nope") {
		t.Error("Has() misreported presence")
	}
}

func TestArgs_Summary(t *testing.T) {
	args := Args{
		"b": StringValue("two"),
		"a": StringValue("one"),
	}
	// Keys come out sorted for stable display.
	if got := args.Summary(40); got != "a=one, b=two" {
		t.Errorf("Summary = %q", got)
	}

	long := Args{"content": StringValue("line1\nline2 and much more text here")}
	got := long.Summary(12)
	if len([]rune(got)) > len("content=")+12 {
		t.Errorf("Summary did not truncate: %q", got)
	}

	if got := (Args{}).Summary(10); got != "" {
		t.Errorf("empty Summary = %q", got)
	}
}
