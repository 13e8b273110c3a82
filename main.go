// SPDX-License-Identifier: MPL-2.0

// Command minipack bundles JavaScript modules into a single script.
package main

import cmd "github.com/minipack/minipack/cmd/minipack"

func main() {
	cmd.Execute()
}
