// Package rewrite edits fetched module text: it stamps the lint-disable
// banner and substitutes module specifiers.
package rewrite

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// Marker is the comment every mirrored module carries.
const Marker = "/* eslint-disable */"

var hostBanner = regexp.MustCompile(`/\* esm\.sh [^\n]*?\*/`)

// Annotate replaces the host's banner comments with Marker, or prepends
// Marker on its own line when the text has none.
func Annotate(src string) string {
	if strings.Contains(src, "/* esm.sh ") {
		if out := hostBanner.ReplaceAllLiteralString(src, Marker); out != src {
			return out
		}
	}
	return Marker + "\n" + src
}

// Edit replaces src[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Spans applies non-overlapping edits to src. Edits may be given in any
// order.
func Spans(src string, edits []Edit) string {
	if len(edits) == 0 {
		return src
	}
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b Edit) int { return cmp.Compare(a.Start, b.Start) })

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, e := range sorted {
		if e.Start < last {
			continue
		}
		b.WriteString(src[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(src[last:])
	return b.String()
}

// Substring replaces every occurrence of each key of repl in one pass.
// Longer keys win over keys they contain.
func Substring(src string, repl map[string]string) string {
	if len(repl) == 0 {
		return src
	}
	keys := make([]string, 0, len(repl))
	for k := range repl {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, repl[k])
	}
	return strings.NewReplacer(pairs...).Replace(src)
}
