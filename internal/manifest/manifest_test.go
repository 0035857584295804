package manifest

import (
	"testing"

	"github.com/spf13/afero"
)

func specifiers(ms []Module) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Specifier
	}
	return out
}

func position(order []string, s string) int {
	for i, o := range order {
		if o == s {
			return i
		}
	}
	return -1
}

func TestLoadOrderDependenciesFirst(t *testing.T) {
	modules := []Module{
		{Specifier: "/root", Root: true, Deps: []string{"/a", "/b"}},
		{Specifier: "/a", Deps: []string{"/shared"}},
		{Specifier: "/shared"},
		{Specifier: "/b", Deps: []string{"/shared", "/external"}},
	}

	order := specifiers(LoadOrder(modules))
	if len(order) != len(modules) {
		t.Fatalf("got %d modules, want %d: %v", len(order), len(modules), order)
	}
	for _, m := range modules {
		for _, dep := range m.Deps {
			if dep == "/external" {
				continue
			}
			if position(order, dep) > position(order, m.Specifier) {
				t.Errorf("%s placed after its dependent %s: %v", dep, m.Specifier, order)
			}
		}
	}
	if order[len(order)-1] != "/root" {
		t.Errorf("root should load last, got %v", order)
	}
}

func TestLoadOrderKeepsCycles(t *testing.T) {
	modules := []Module{
		{Specifier: "/x", Deps: []string{"/y"}},
		{Specifier: "/y", Deps: []string{"/x"}},
		{Specifier: "/leaf"},
		{Specifier: "/self", Deps: []string{"/self"}},
	}
	order := specifiers(LoadOrder(modules))
	want := []string{"/leaf", "/self", "/x", "/y"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/out", 0o755); err != nil {
		t.Fatal(err)
	}
	m := New("https://esm.sh", "es2022", []string{"/he@1.2.0?target=es2022"}, []Module{
		{Specifier: "/he@1.2.0?target=es2022", File: "he.js", SHA256: "abc", Root: true},
	})
	if err := Write(fs, "/out/manifest.json", m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(fs, "/out/manifest.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Target != "es2022" || len(got.Roots) != 1 || len(got.Modules) != 1 || got.Modules[0].File != "he.js" || !got.Modules[0].Root {
		t.Errorf("unexpected manifest: %+v", got)
	}
}
