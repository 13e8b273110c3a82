// SPDX-License-Identifier: MPL-2.0

// Package jsmod parses JavaScript modules with github.com/tdewolff/parse/v2/js
// and lowers ES module syntax to the CommonJS calling convention used inside a
// bundle (require, module and exports as free variables).
//
// Lowering keeps module semantics close to the original:
//   - import bindings are live; every use reads through the required module
//   - local exports are getters on exports, so importers observe later writes
//   - default imports of CommonJS modules receive module.exports
//
// Scripts without import or export statements are passed through unchanged.
package jsmod
