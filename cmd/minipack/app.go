// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/minipack/minipack/internal/config"
)

type (
	sessionContextKey struct{}

	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies are the injection points of NewApp. Nil fields get the
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration and reports the file it came from.
	ConfigProvider interface {
		Resolve(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// session is the per-invocation state prepared by the root command.
	session struct {
		cfg     *config.Config
		cfgPath string
		verbose bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
}

func contextWithSession(ctx context.Context, s *session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// sessionFromContext returns the session set by the root command, or one
// holding the defaults when a command runs without it (tests, completion).
func sessionFromContext(ctx context.Context) *session {
	if s, ok := ctx.Value(sessionContextKey{}).(*session); ok {
		return s
	}
	return &session{cfg: config.DefaultConfig()}
}
