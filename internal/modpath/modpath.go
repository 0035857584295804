// Package modpath maps module specifiers served by an esm.sh style host to
// canonical specifiers and to paths inside the mirrored output tree.
//
// Canonical specifiers are root-relative host paths, query included
// ("/v135/react@18.2.0/es2022/react.mjs"). Output paths are slash-separated
// and relative to the output root ("react/react.mjs").
package modpath

import (
	"path"
	"strings"
)

// isRelative reports whether spec is package-relative.
func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// isRootRelative reports whether spec addresses the host root directly.
func isRootRelative(spec string) bool {
	return strings.HasPrefix(spec, "/") && !strings.HasPrefix(spec, "//")
}

// Dir returns the directory of a canonical specifier, ignoring its query.
func Dir(canonical string) string {
	p, _, _ := strings.Cut(canonical, "?")
	return path.Dir(p)
}

// Canonical resolves raw against referrerDir. Package-relative specifiers
// are joined to the directory; both kinds are cleaned, so "." and ".."
// segments never survive and ".." stops at the host root. The query is kept
// as is. ok is false for anything else (bare names, other schemes).
func Canonical(raw, referrerDir string) (canonical string, ok bool) {
	p, q, hasQuery := strings.Cut(raw, "?")
	switch {
	case isRootRelative(raw):
		p = path.Clean(p)
	case isRelative(raw):
		p = path.Join("/", referrerDir, p)
	default:
		return "", false
	}
	if hasQuery {
		p += "?" + q
	}
	return p, true
}

// Root builds the canonical specifier of a root request.
func Root(pkg, version, subPath, target string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(pkg)
	b.WriteString("@")
	b.WriteString(version)
	if sub := strings.Trim(subPath, "/"); sub != "" {
		b.WriteString("/")
		b.WriteString(sub)
	}
	b.WriteString("?target=")
	b.WriteString(target)
	return b.String()
}

// RootFile is the output path of a root request: the sub-path when there is
// one, the package name otherwise, with a .js extension.
func RootFile(pkg, subPath string) string {
	name := strings.Trim(subPath, "/")
	if name == "" {
		name = pkg
	}
	return path.Clean(name) + ".js"
}

// SaveName strips host routing, version and target markers from a canonical
// specifier, giving a version-agnostic "./"-prefixed path:
//
//	/v135/@babel/runtime@7.23.5/es2022/helpers/esm/extends.js -> ./@babel/runtime/helpers/esm/extends.js
//	/stable/react@18.2.0/es2022/react.mjs                     -> ./react/react.mjs
func SaveName(canonical, target string) string {
	p, _, _ := strings.Cut(canonical, "?")

	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}

	if len(segs) > 0 && isRoute(segs[0]) {
		segs = segs[1:]
	}

	for i, s := range segs {
		if at := strings.IndexByte(s, '@'); at > 0 {
			segs[i] = s[:at]
			break
		}
	}

	for i, s := range segs {
		if s == target {
			segs = append(segs[:i], segs[i+1:]...)
			break
		}
	}

	return "./" + strings.Join(segs, "/")
}

// isRoute matches the host-internal "/v<digits>/" and "/stable/" prefixes.
func isRoute(seg string) bool {
	if seg == "stable" {
		return true
	}
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for i := 1; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// Depth is the number of directories between the output root and the file
// at rel.
func Depth(rel string) int {
	return len(dirSegments(rel))
}

// Relative returns the specifier that the module stored at from uses to
// import the module stored at to. Both are output paths. The result always
// starts with "./" or "../".
func Relative(from, to string) string {
	fromDir := dirSegments(from)
	toDir := dirSegments(to)

	common := 0
	for common < len(fromDir) && common < len(toDir) && fromDir[common] == toDir[common] {
		common++
	}

	rest := append(toDir[common:len(toDir):len(toDir)], path.Base(path.Clean(to)))
	hops := len(fromDir) - common
	if hops == 0 {
		return "./" + strings.Join(rest, "/")
	}
	return strings.Repeat("../", hops) + strings.Join(rest, "/")
}

func dirSegments(rel string) []string {
	dir := path.Dir(path.Clean(strings.TrimPrefix(rel, "/")))
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}
