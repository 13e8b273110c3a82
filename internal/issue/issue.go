// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	EntryNotFoundId
	ParseFailedId
	UnresolvedPathId
	InvalidGraphId
	ConfigLoadFailedId
	InvalidTargetId
	InvalidGlobalNameId
	OutputWriteFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- " + string(link) + "\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- " + string(link) + "\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

A file named on the command line does not exist or is not a regular file.

## Things you can try:
- Check the path for typos
- Paths are relative to the current directory:
~~~
$ pwd
$ ls
~~~`,
	}

	entryNotFoundIssue = &Issue{
		id: EntryNotFoundId,
		mdMsg: `
# No entry module!

minipack needs one entry file to start walking the dependency graph.

## Things you can try:
- Pass the entry on the command line:
~~~
$ minipack build ./src/entry.js
~~~

- Or set it in ` + "`minipack.cue`" + `:
~~~cue
entry: "./src/entry.js"
~~~`,
	}

	parseFailedIssue = &Issue{
		id: ParseFailedId,
		mdMsg: `
# Failed to parse a module!

One of the modules reachable from the entry is not valid JavaScript.

## Common issues:
- Unbalanced braces or parentheses
- Syntax newer than the parser understands
- A non-JavaScript file imported by mistake

## Things you can try:
- Check the line and column in the error message above
- Build with the esbuild transformer, which reports detailed diagnostics:
~~~
$ minipack build --transformer esbuild ./src/entry.js
~~~`,
	}

	unresolvedPathIssue = &Issue{
		id: UnresolvedPathId,
		mdMsg: `
# Cannot resolve an import!

An import specifier points at a file that cannot be read.

## How specifiers are resolved:
1. The specifier is joined with the directory of the importing module
2. The result is cleaned and symlinks are followed
3. No extensions are added and no package directories are searched

## Things you can try:
- Spell out the full file name, including ` + "`.js`" + `
- Make sure the path does not point at a directory
- Inspect the graph built so far:
~~~
$ minipack --verbose graph ./src/entry.js
~~~`,
	}

	invalidGraphIssue = &Issue{
		id: InvalidGraphId,
		mdMsg: `
# Invalid module graph!

The module graph handed to the emitter breaks an internal invariant.
This is a bug in minipack or in a custom analyzer.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` and report the violations listed`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be loaded or does not match the schema.

## Search locations (in order of precedence):
1. ` + "`--config <file>`" + `
2. ` + "`./minipack.cue`" + `
3. ` + "`<config dir>/minipack/config.cue`" + `

## Things you can try:
- Print the file in use:
~~~
$ minipack config path
~~~

- Write a fresh default file:
~~~
$ minipack config init --force
~~~`,
	}

	invalidTargetIssue = &Issue{
		id: InvalidTargetId,
		mdMsg: `
# Unknown syntax target!

The esbuild transformer lowers syntax to a named ECMAScript edition.

## Valid targets:
` + "`es5`, `es2015` ... `es2022`, `esnext`" + `

## Things you can try:
~~~
$ minipack build --transformer esbuild --target es2017 ./src/entry.js
~~~`,
	}

	invalidGlobalNameIssue = &Issue{
		id: InvalidGlobalNameId,
		mdMsg: `
# Invalid global name!

The global name becomes a top-level ` + "`var`" + ` and must be a valid JavaScript identifier
that is not a reserved word.

## Things you can try:
~~~
$ minipack build --global-name MyLib ./src/index.js
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write the bundle!

The bundle was built but could not be written to the output path.
Nothing was left behind at the destination.

## Things you can try:
- Check that the output directory exists
- Check that you can write to it
- Print the bundle to stdout instead:
~~~
$ minipack build ./src/entry.js > bundle.js
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

minipack could not read a module or write an output file.

## Things you can try:
- Check file permissions:
~~~
$ ls -la <file>
~~~`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():      fileNotFoundIssue,
		entryNotFoundIssue.Id():     entryNotFoundIssue,
		parseFailedIssue.Id():       parseFailedIssue,
		unresolvedPathIssue.Id():    unresolvedPathIssue,
		invalidGraphIssue.Id():      invalidGraphIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		invalidTargetIssue.Id():     invalidTargetIssue,
		invalidGlobalNameIssue.Id(): invalidGlobalNameIssue,
		outputWriteFailedIssue.Id(): outputWriteFailedIssue,
		permissionDeniedIssue.Id():  permissionDeniedIssue,
	}
)

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	ids := maps.Keys(issues)
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
