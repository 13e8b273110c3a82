// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/minipack/minipack/internal/downlevel"
	"github.com/minipack/minipack/pkg/emit"
)

func TestTransformerKind_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind TransformerKind
		want bool
	}{
		{TransformerNative, true},
		{TransformerEsbuild, true},
		{"", false},
		{"babel", false},
		{"NATIVE", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.kind.IsValid()
			if isValid != tt.want {
				t.Errorf("TransformerKind(%q).IsValid() = %v, want %v", tt.kind, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidTransformer)) {
				t.Errorf("error should wrap ErrInvalidTransformer, got: %v", errs)
			}
		})
	}
}

func TestEnums_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		isValid  func() (bool, []error)
		want     bool
		sentinel error
	}{
		{"color auto", ColorSchemeAuto.IsValid, true, nil},
		{"color light", ColorSchemeLight.IsValid, true, nil},
		{"color blue", ColorScheme("blue").IsValid, false, ErrInvalidColorScheme},
		{"level debug", LogLevelDebug.IsValid, true, nil},
		{"level trace", LogLevel("trace").IsValid, false, ErrInvalidLogLevel},
		{"format logfmt", LogFormatLogfmt.IsValid, true, nil},
		{"format xml", LogFormat("xml").IsValid, false, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, errs := tt.isValid()
			if got != tt.want {
				t.Fatalf("IsValid() = %v, want %v", got, tt.want)
			}
			if tt.sentinel != nil && !errors.Is(errs[0], tt.sentinel) {
				t.Errorf("error %v should wrap %v", errs[0], tt.sentinel)
			}
		})
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Transformer != TransformerNative || !cfg.ScanRequire || !cfg.FollowSymlinks {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		sentinel error
	}{
		{"bad transformer", func(c *Config) { c.Transformer = "babel" }, ErrInvalidTransformer},
		{"bad target", func(c *Config) { c.Target = "es3" }, downlevel.ErrUnknownTarget},
		{"reserved global name", func(c *Config) { c.GlobalName = "class" }, emit.ErrInvalidGlobalName},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
		{"bad color", func(c *Config) { c.UI.ColorScheme = "pink" }, ErrInvalidColorScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
			var cfgErr *InvalidConfigError
			if !errors.As(err, &cfgErr) || len(cfgErr.FieldErrors) != 1 {
				t.Errorf("expected exactly one field error, got %v", err)
			}
		})
	}
}
