// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name?:  string
	level?: "low" | "high"
	tags?: [...string]
}
`

type settings struct {
	Name  string   `json:"name"`
	Level string   `json:"level"`
	Tags  []string `json:"tags"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[settings]([]byte(testSchema), []byte(`
name: "demo"
level: "high"
tags: ["a", "b"]
`), "#Settings", WithFilename("demo.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode: %v", err)
	}
	if res.Value.Name != "demo" || res.Value.Level != "high" || len(res.Value.Tags) != 2 {
		t.Errorf("decoded %+v", res.Value)
	}
}

func TestParseAndDecode_OptionalFieldsOmitted(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[map[string]any]([]byte(testSchema), []byte(`name: "x"`), "#Settings")
	if err != nil {
		t.Fatalf("ParseAndDecode: %v", err)
	}
	if len(*res.Value) != 1 || (*res.Value)["name"] != "x" {
		t.Errorf("decoded %v, want only name", *res.Value)
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		opts     []Option
		sentinel error
		contains string
	}{
		{"schema violation", `level: "medium"`, nil, ErrInvalidDocument, "level"},
		{"closed definition", `unknown: 1`, nil, ErrInvalidDocument, "unknown"},
		{"syntax error", `name: "unterminated`, nil, ErrInvalidDocument, "demo.cue"},
		{"too large", `name: "x"`, []Option{WithMaxFileSize(3)}, ErrFileTooLarge, "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("demo.cue")}, tt.opts...)
			_, err := ParseAndDecode[settings]([]byte(testSchema), []byte(tt.data), "#Settings", opts...)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
		})
	}
}

func TestParseAndDecode_Concrete(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[settings]([]byte(testSchema), []byte(`name: string`), "#Settings", WithConcrete())
	if err == nil {
		t.Error("non-concrete value should fail with WithConcrete")
	}
}
