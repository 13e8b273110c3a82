// SPDX-License-Identifier: MPL-2.0

package module

import "fmt"

// Validate checks the invariants of a finished build:
//   - record i has ID i, so IDs are dense and the entry is 0
//   - no path appears twice
//   - mapping keys are exactly the distinct dependency specifiers
//   - every mapping value names a record in the slice
//
// An empty slice is invalid because every build has an entry module.
func Validate(records []*Record) error {
	var violations []string
	addf := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if len(records) == 0 {
		addf("no modules")
	}

	seen := make(map[string]ID, len(records))
	for i, r := range records {
		if r == nil {
			addf("record %d is nil", i)
			continue
		}
		if r.ID != ID(i) {
			addf("record %d has id %d", i, r.ID)
		}
		if prev, dup := seen[r.Path]; dup {
			addf("path %s appears as both #%d and #%d", r.Path, prev, r.ID)
		} else {
			seen[r.Path] = r.ID
		}

		distinct := make(map[string]struct{}, len(r.Dependencies))
		for _, dep := range r.Dependencies {
			distinct[dep] = struct{}{}
			if _, ok := r.Mapping.Lookup(dep); !ok {
				addf("#%d: dependency %q is not mapped", r.ID, dep)
			}
		}
		for _, e := range r.Mapping.Entries() {
			if _, ok := distinct[e.Specifier]; !ok {
				addf("#%d: mapping key %q is not a dependency", r.ID, e.Specifier)
			}
			if e.ID < 0 || int(e.ID) >= len(records) {
				addf("#%d: %q maps to unknown id %d", r.ID, e.Specifier, e.ID)
			}
		}
	}

	if len(violations) > 0 {
		return &InvalidGraphError{Violations: violations}
	}
	return nil
}
