// SPDX-License-Identifier: MPL-2.0

// Package config loads minipack settings with Viper from a CUE file.
//
// The file is looked up as --config <file>, then ./minipack.cue, then
// config.cue in the user config directory ($XDG_CONFIG_HOME/minipack on
// Linux, ~/Library/Application Support/minipack on macOS, %APPDATA%\minipack
// on Windows). It is validated against the embedded #Config schema
// (config_schema.cue). MINIPACK_* environment variables override the file.
package config
