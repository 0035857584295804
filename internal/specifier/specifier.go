// Package specifier finds module specifiers in ES module source text.
//
// The scanner understands just enough JavaScript to stay out of string,
// template and regular expression literals and comments. It recognizes:
//
//	import x from "spec"      import {a as b} from 'spec'
//	import "spec"             import x"spec"
//	export * from "spec"      export * as ns from "spec"
//	export {a, b} from "spec" import("spec")
package specifier

import (
	"fmt"
	"iter"
)

// Kind classifies the statement a specifier was found in.
type Kind uint8

const (
	Import Kind = iota
	Export
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Import:
		return "import"
	case Export:
		return "export"
	case Dynamic:
		return "dynamic import"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Match is one specifier occurrence. src[Start:End] == Raw; the surrounding
// quotes are not part of the span.
type Match struct {
	Raw   string
	Start int
	End   int
	Kind  Kind
}

// MalformedError reports an import or export statement without a quoted
// specifier where one is required.
type MalformedError struct {
	Offset int
	Kind   Kind
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s statement at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

// All returns the specifiers of src in source order. Iteration stops after
// the first error. The sequence can be ranged over any number of times.
func All(src string) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		s := &scanner{src: src, regexOK: true}
		for {
			m, ok, err := s.next()
			if err != nil {
				yield(Match{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

// Extract collects All(src).
func Extract(src string) ([]Match, error) {
	var out []Match
	for m, err := range All(src) {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
