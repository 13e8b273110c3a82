// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/minipack/minipack/internal/downlevel"
	"github.com/minipack/minipack/pkg/emit"
)

const (
	// TransformerNative lowers ES modules with the built-in rewriter.
	TransformerNative TransformerKind = "native"
	// TransformerEsbuild lowers modules with esbuild.
	TransformerEsbuild TransformerKind = "esbuild"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidTransformer is returned when a TransformerKind value is not recognized.
	ErrInvalidTransformer = errors.New("invalid transformer")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// TransformerKind selects the module transformer.
	TransformerKind string

	// InvalidTransformerError wraps ErrInvalidTransformer.
	InvalidTransformerError struct {
		Value TransformerKind
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// LogFormat selects the log line encoding.
	LogFormat string

	// InvalidLogFormatError wraps ErrInvalidLogFormat.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Entry is the default entry module.
		Entry string `json:"entry" yaml:"entry" mapstructure:"entry"`
		// Output is the bundle file; empty means stdout.
		Output string `json:"output" yaml:"output" mapstructure:"output"`
		// Transformer selects native or esbuild lowering.
		Transformer TransformerKind `json:"transformer" yaml:"transformer" mapstructure:"transformer"`
		// Target is the esbuild syntax target.
		Target string `json:"target" yaml:"target" mapstructure:"target"`
		// Minify compresses the emitted bundle.
		Minify bool `json:"minify" yaml:"minify" mapstructure:"minify"`
		// GlobalName exposes the entry exports as a top-level var.
		GlobalName string `json:"global_name" yaml:"global_name" mapstructure:"global_name"`
		// Banner is emitted as leading comment lines.
		Banner string `json:"banner" yaml:"banner" mapstructure:"banner"`
		// FollowSymlinks canonicalizes module paths through symlinks.
		FollowSymlinks bool `json:"follow_symlinks" yaml:"follow_symlinks" mapstructure:"follow_symlinks"`
		// ScanRequire treats literal require calls as dependencies.
		ScanRequire bool `json:"scan_require" yaml:"scan_require" mapstructure:"scan_require"`
		LogLevel    LogLevel  `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
		LogFormat   LogFormat `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
		// UI configures the user interface
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose prints error chains and issue help pages.
		Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Transformer:    TransformerNative,
		Target:         downlevel.DefaultTarget,
		FollowSymlinks: true,
		ScanRequire:    true,
		LogLevel:       LogLevelWarn,
		LogFormat:      LogFormatText,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid reports whether every field holds an accepted value. Checks the
// schema cannot express, like global names that are reserved words, live
// here so flag overrides are validated too.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Transformer.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := downlevel.ParseTarget(c.Target); err != nil {
		errs = append(errs, err)
	}
	if c.GlobalName != "" && !emit.IsIdentifier(c.GlobalName) {
		errs = append(errs, fmt.Errorf("%w: %q", emit.ErrInvalidGlobalName, c.GlobalName))
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogFormat.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid returning a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error lists the field errors after a count.
func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msg += "\n  - " + fe.Error()
	}
	return msg
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func (k TransformerKind) String() string { return string(k) }

// IsValid returns whether the TransformerKind is native or esbuild.
func (k TransformerKind) IsValid() (bool, []error) {
	switch k {
	case TransformerNative, TransformerEsbuild:
		return true, nil
	default:
		return false, []error{&InvalidTransformerError{Value: k}}
	}
}

func (e *InvalidTransformerError) Error() string {
	return fmt.Sprintf("invalid transformer %q (valid: native, esbuild)", e.Value)
}

func (e *InvalidTransformerError) Unwrap() error { return ErrInvalidTransformer }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is debug, info, warn or error.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is text, json or logfmt.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&InvalidLogFormatError{Value: f}}
	}
}

func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }
