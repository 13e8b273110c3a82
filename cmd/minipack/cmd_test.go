// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"

	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/testutil"
	"github.com/minipack/minipack/pkg/module"
)

type (
	// staticConfig is a ConfigProvider returning a fixed configuration.
	staticConfig struct {
		cfg  *config.Config
		path string
		err  error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) Resolve(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	cfg := *s.cfg
	return &cfg, s.path, nil
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) cliResult {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

var project = map[string]string{
	"src/entry.js": `
		import { greet } from './greet.js';
		const { shout } = require('./shout.js');
		globalThis.message = shout(greet('world'));
	`,
	"src/greet.js": `
		export function greet(name) { return 'hello ' + name; }
	`,
	"src/shout.js": `
		module.exports.shout = function (s) { return s.toUpperCase() + '!'; };
	`,
}

func evalBundle(t *testing.T, bundle, expr string) string {
	t.Helper()
	vm := goja.New()
	if _, err := vm.RunString(bundle); err != nil {
		t.Fatalf("bundle failed: %v\n%s", err, bundle)
	}
	v, err := vm.RunString(expr)
	if err != nil {
		t.Fatalf("%s: %v", expr, err)
	}
	return v.String()
}

func TestBuild_Stdout(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, project)
	res := runCLI(t, nil, "build", filepath.Join(dir, "src", "entry.js"))
	if res.err != nil {
		t.Fatalf("build failed: %v\n%s", res.err, res.stderr)
	}
	if got := evalBundle(t, res.stdout, "message"); got != "HELLO WORLD!" {
		t.Errorf("message = %q", got)
	}
}

func TestBuild_OutputAndManifest(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, project)
	out := filepath.Join(dir, "dist.js")
	manifest := filepath.Join(dir, "manifest.yaml")

	res := runCLI(t, nil, "build", filepath.Join(dir, "src", "entry.js"),
		"-o", out, "--manifest", manifest, "--global-name", "app", "--banner", "built by tests")
	if res.err != nil {
		t.Fatalf("build failed: %v\n%s", res.err, res.stderr)
	}
	if res.stdout != "" {
		t.Errorf("stdout should be empty when -o is given, got %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "Bundled") {
		t.Errorf("missing summary line:\n%s", res.stderr)
	}

	bundle := testutil.ReadFile(t, out)
	if !strings.HasPrefix(bundle, "// built by tests") {
		t.Errorf("banner missing:\n%s", bundle)
	}
	if got := evalBundle(t, bundle, "typeof app"); got != "object" {
		t.Errorf("typeof app = %q", got)
	}

	var m struct {
		Entry   string `yaml:"entry"`
		Modules []struct {
			Path string `yaml:"path"`
		} `yaml:"modules"`
	}
	if err := yaml.Unmarshal([]byte(testutil.ReadFile(t, manifest)), &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Entry != "src/entry.js" && m.Entry != "entry.js" {
		t.Errorf("entry = %q", m.Entry)
	}
	if len(m.Modules) != 3 {
		t.Errorf("manifest lists %d modules, want 3", len(m.Modules))
	}
}

func TestBuild_ConfigEntryAndFlags(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, project)
	cfg := config.DefaultConfig()
	cfg.Entry = filepath.Join(dir, "src", "entry.js")
	cfg.Transformer = config.TransformerEsbuild

	res := runCLI(t, cfg, "build", "--minify")
	if res.err != nil {
		t.Fatalf("build failed: %v\n%s", res.err, res.stderr)
	}
	if got := evalBundle(t, res.stdout, "message"); got != "HELLO WORLD!" {
		t.Errorf("message = %q", got)
	}
}

func TestBuild_Failures(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"missing.js": `import './nope.js';`,
		"broken.js":  `export const = 1;`,
		"ok.js":      `export const x = 1;`,
	})

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  []string
	}{
		{"no entry", []string{"build"}, ExitUsage, []string{"no entry module given", "minipack build src/entry.js"}},
		{"missing entry", []string{"build", filepath.Join(dir, "absent.js")}, ExitBuildFailed, []string{"absent.js"}},
		{"missing dependency", []string{"build", filepath.Join(dir, "missing.js")}, ExitBuildFailed, []string{`"./nope.js"`, "include the file extension"}},
		{"parse error", []string{"build", filepath.Join(dir, "broken.js")}, ExitBuildFailed, []string{"broken.js", "Fix the syntax error"}},
		{"bad target", []string{"build", filepath.Join(dir, "ok.js"), "--target", "es3"}, ExitUsage, []string{"es3"}},
		{"bad global name", []string{"build", filepath.Join(dir, "ok.js"), "--global-name", "not valid"}, ExitUsage, []string{"not valid"}},
		{"bad transformer", []string{"build", filepath.Join(dir, "ok.js"), "--transformer", "babel"}, ExitUsage, []string{"babel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := runCLI(t, nil, tt.args...)
			if got := exitCode(res.err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err %v)\n%s", got, tt.wantCode, res.err, res.stderr)
			}
			if res.stdout != "" {
				t.Errorf("failed build wrote to stdout: %q", res.stdout)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(res.stderr, want) {
					t.Errorf("stderr missing %q:\n%s", want, res.stderr)
				}
			}
		})
	}
}

func TestBuild_VerboseShowsIssue(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{"a.js": `import './gone.js';`})
	res := runCLI(t, nil, "build", filepath.Join(dir, "a.js"), "--verbose")
	if exitCode(res.err) != ExitBuildFailed {
		t.Fatalf("exit code = %d", exitCode(res.err))
	}
	if !strings.Contains(res.stderr, "Error chain:") {
		t.Errorf("verbose output lacks the error chain:\n%s", res.stderr)
	}
}

func TestGraph_JSONWithOrder(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"A.js": `import './B.js'; import './C.js';`,
		"B.js": `import './C.js';`,
		"C.js": `export const c = 1;`,
	})
	res := runCLI(t, nil, "graph", filepath.Join(dir, "A.js"), "--format", "json", "--order")
	if res.err != nil {
		t.Fatalf("graph failed: %v\n%s", res.err, res.stderr)
	}

	var report struct {
		Entry   string `json:"entry"`
		Modules []struct {
			ID      module.ID        `json:"id"`
			Path    string           `json:"path"`
			Mapping map[string]int64 `json:"mapping"`
		} `json:"modules"`
		Order []module.ID `json:"order"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, res.stdout)
	}
	if report.Entry != "A.js" {
		t.Errorf("entry = %q", report.Entry)
	}
	paths := make([]string, 0, len(report.Modules))
	for _, m := range report.Modules {
		paths = append(paths, m.Path)
	}
	if !slices.Equal(paths, []string{"A.js", "B.js", "C.js"}) {
		t.Errorf("paths = %v", paths)
	}
	if report.Modules[0].Mapping["./C.js"] != 2 {
		t.Errorf("mapping of A = %v", report.Modules[0].Mapping)
	}
	if !slices.Equal(report.Order, []module.ID{2, 1, 0}) {
		t.Errorf("order = %v, want [2 1 0]", report.Order)
	}
}

func TestGraph_TextWithCycle(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"a.js": `import './b.js';`,
		"b.js": `import './a.js';`,
	})
	cfg := config.DefaultConfig()
	cfg.LogLevel = config.LogLevelWarn
	res := runCLI(t, cfg, "graph", filepath.Join(dir, "a.js"), "--order")
	if res.err != nil {
		t.Fatalf("graph failed: %v\n%s", res.err, res.stderr)
	}
	for _, want := range []string{"a.js", "./b.js -> 1", "./a.js -> 0", "Load order:"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
	if !strings.Contains(res.stderr, "import cycle") {
		t.Errorf("expected a cycle warning:\n%s", res.stderr)
	}
}

func TestGraph_UnknownFormat(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "graph", "x.js", "--format", "dot")
	if exitCode(res.err) != ExitUsage {
		t.Errorf("exit code = %d, want %d", exitCode(res.err), ExitUsage)
	}
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.GlobalName = "lib"

	tests := []struct {
		format string
		want   string
	}{
		{"cue", `global_name: "lib"`},
		{"json", `"global_name": "lib"`},
		{"yaml", "global_name: lib"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			res := runCLI(t, cfg, "config", "dump", "--format", tt.format)
			if res.err != nil {
				t.Fatalf("dump: %v\n%s", res.err, res.stderr)
			}
			if !strings.Contains(res.stdout, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, res.stdout)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "config", "show")
	if res.err != nil {
		t.Fatal(res.err)
	}
	for _, want := range []string{"Current Configuration", "(using defaults)", "transformer", "native"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestConfigLoadFailure(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{err: errors.New("bad config")},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs([]string{"config", "show"})

	err := root.ExecuteContext(context.Background())
	if exitCode(err) != ExitUsage {
		t.Fatalf("exit code = %d, want %d", exitCode(err), ExitUsage)
	}
	if !strings.Contains(stderr.String(), "bad config") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestVerboseFlagEnablesDebugLogging(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{"a.js": `export const a = 1;`})
	res := runCLI(t, nil, "build", filepath.Join(dir, "a.js"), "-v", "-o", filepath.Join(dir, "out.js"))
	if res.err != nil {
		t.Fatalf("build failed: %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stderr, "bundle written") {
		t.Errorf("expected info logging under -v:\n%s", res.stderr)
	}
}
