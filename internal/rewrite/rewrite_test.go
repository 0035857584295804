package rewrite

import (
	"strings"
	"testing"
)

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			name: "prepends marker",
			in:   "export default 1;",
			want: "/* eslint-disable */\nexport default 1;",
		},
		{
			name: "replaces banner",
			in:   "/* esm.sh - esbuild bundle(he@1.2.0) es2022 production */\nvar a=1;",
			want: "/* eslint-disable */\nvar a=1;",
		},
		{
			name: "replaces every banner",
			in:   "/* esm.sh - a */x;/* esm.sh - b */y;",
			want: "/* eslint-disable */x;/* eslint-disable */y;",
		},
		{
			name: "banner text without comment end",
			in:   "const s = '/* esm.sh '",
			want: "/* eslint-disable */\nconst s = '/* esm.sh '",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Annotate(tt.in); got != tt.want {
				t.Errorf("Annotate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	src := `import a from"/x.js";const s="/x.js";import b from"/y.js"`
	first := strings.Index(src, "/x.js")
	last := strings.LastIndex(src, "/y.js")

	got := Spans(src, []Edit{
		{Start: last, End: last + len("/y.js"), Text: "./y/y.js"},
		{Start: first, End: first + len("/x.js"), Text: "./x/x.js"},
	})
	want := `import a from"./x/x.js";const s="/x.js";import b from"./y/y.js"`
	if got != want {
		t.Errorf("Spans = %q, want %q", got, want)
	}
}

func TestSpansNoEdits(t *testing.T) {
	if got := Spans("abc", nil); got != "abc" {
		t.Errorf("Spans without edits = %q", got)
	}
}

func TestSubstring(t *testing.T) {
	src := `import a from"/a.js";import b from"/a.js.map.js";const s="/a.js"`
	got := Substring(src, map[string]string{
		"/a.js":        "./a/a.js",
		"/a.js.map.js": "./m.js",
	})
	want := `import a from"./a/a.js";import b from"./m.js";const s="./a/a.js"`
	if got != want {
		t.Errorf("Substring = %q, want %q", got, want)
	}
}

func TestSubstringDoesNotRewriteReplacements(t *testing.T) {
	got := Substring(`"/a.js" "/b.js"`, map[string]string{
		"/a.js": "/b.js",
		"/b.js": "./b.js",
	})
	if got != `"/b.js" "./b.js"` {
		t.Errorf("Substring = %q", got)
	}
}
