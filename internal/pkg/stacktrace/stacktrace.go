// Package stacktrace trims runtime stacks down to the frames that belong to
// this module, so panic logs stay readable.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the stack that lives under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		// file lines are the tab-indented half of each frame
		if !strings.HasPrefix(line, "\t") {
			continue
		}

		loc, _, _ := strings.Cut(strings.TrimSpace(line), " +0x")
		i := strings.Index(loc, marker)
		if i < 0 || !strings.Contains(loc, ".go:") {
			continue
		}

		paths = append(paths, loc[i+1:])
	}

	return paths
}
