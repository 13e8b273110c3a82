// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"testing"
)

// MustChdir changes the working directory to dir and registers a cleanup that
// restores the original one. Tests calling it must not run in parallel.
func MustChdir(t testing.TB, dir string) {
	t.Helper()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Errorf("failed to restore directory to %s: %v", originalWd, err)
		}
	})
}

// MustSetenv sets key to value until the test ends.
func MustSetenv(t testing.TB, key, value string) {
	t.Helper()
	originalValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadValue {
			_ = os.Setenv(key, originalValue)
			return
		}
		_ = os.Unsetenv(key)
	})
}

// SetHomeDir points the user home and config directories at dir so that
// os.UserConfigDir resolves inside the test sandbox.
func SetHomeDir(t testing.TB, dir string) {
	t.Helper()
	switch runtime.GOOS {
	case "windows":
		MustSetenv(t, "USERPROFILE", dir)
		MustSetenv(t, "APPDATA", dir)
	case "darwin":
		MustSetenv(t, "HOME", dir)
	default:
		MustSetenv(t, "HOME", dir)
		MustSetenv(t, "XDG_CONFIG_HOME", dir)
	}
}
