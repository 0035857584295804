// Package manifest describes a mirrored module tree: which file holds which
// canonical specifier, its checksum, its dependencies, and an order in which
// the modules can be registered with a loader that needs dependencies first.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// Manifest is written as manifest.json at the output root.
type Manifest struct {
	BaseURL string   `json:"baseURL"`
	Target  string   `json:"target"`
	Roots   []string `json:"roots"`
	Modules []Module `json:"modules"`
}

// Module is one mirrored file.
type Module struct {
	Specifier string   `json:"specifier"`
	File      string   `json:"file"`
	SHA256    string   `json:"sha256"`
	Root      bool     `json:"root,omitempty"`
	Deps      []string `json:"deps,omitempty"`
}

// New builds a manifest with modules in load order. roots are the
// canonical specifiers of the requested packages.
func New(baseURL, target string, roots []string, modules []Module) Manifest {
	return Manifest{
		BaseURL: baseURL,
		Target:  target,
		Roots:   roots,
		Modules: LoadOrder(modules),
	}
}

// LoadOrder sorts modules so that dependencies come before dependents,
// using Kahn's algorithm. Ties keep the input order. Dependencies outside
// the set are ignored. Modules on a cycle cannot be ordered and are appended
// in input order.
func LoadOrder(modules []Module) []Module {
	index := make(map[string]int, len(modules))
	for i, m := range modules {
		if _, dup := index[m.Specifier]; !dup {
			index[m.Specifier] = i
		}
	}

	inDegree := make([]int, len(modules))
	dependents := make([][]int, len(modules))
	for i, m := range modules {
		if index[m.Specifier] != i {
			continue
		}
		seen := make(map[int]bool, len(m.Deps))
		for _, dep := range m.Deps {
			j, ok := index[dep]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	var queue []int
	for i, m := range modules {
		if index[m.Specifier] == i && inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	placed := make([]bool, len(modules))
	order := make([]Module, 0, len(modules))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		placed[node] = true
		order = append(order, modules[node])

		for _, dep := range dependents[node] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	for i, m := range modules {
		if index[m.Specifier] == i && !placed[i] {
			order = append(order, m)
		}
	}
	return order
}

// Write stores m as indented JSON at path on fs.
func Write(fs afero.Fs, path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Read loads the manifest at path on fs.
func Read(fs afero.Fs, path string) (Manifest, error) {
	var m Manifest
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}
