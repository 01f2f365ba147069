// Package binaryid defines the stable identifier for a test binary within a
// workspace: a (package name, target kind, target name) triple with a
// canonical string form and a comparison order independent of that string.
package binaryid

import (
	"fmt"
	"strings"
)

// Kind is the kind of build target a test binary was produced from.
type Kind string

const (
	// KindLib is a library's own unit tests.
	KindLib Kind = "lib"
	// KindProcMacro is a proc-macro crate's unit tests.
	KindProcMacro Kind = "proc-macro"
	// KindTest is an integration test binary.
	KindTest Kind = "test"
	// KindBench is a benchmark harness binary.
	KindBench Kind = "bench"
	// KindExample is an example binary built with test support.
	KindExample Kind = "example"
	// KindBin is a regular binary target built with test support.
	KindBin Kind = "bin"
)

// rank gives each Kind a canonical sort position, independent of the
// lexical order of the Kind string itself.
func (k Kind) rank() int {
	switch k {
	case KindLib:
		return 0
	case KindProcMacro:
		return 1
	case KindTest:
		return 2
	case KindBench:
		return 3
	case KindExample:
		return 4
	case KindBin:
		return 5
	default:
		return 6
	}
}

// ID is a unique, stable identifier for a test binary within a workspace,
// constructed from (package name, target kind, target name).
//
// Construction rule:
//   - libraries and proc-macros:  "<package>"
//   - integration tests:          "<package>::<target>"
//   - everything else:            "<package>::<kind>/<target>"
//
// ID is immutable and comparable; the zero value is not a valid ID.
type ID struct {
	pkg    string
	kind   Kind
	target string
}

// FromParts constructs an ID from its three components. Package must be
// non-empty; target may be empty only for KindLib/KindProcMacro (where the
// target coincides with the package's own library target and is not part
// of the display form).
func FromParts(pkg string, kind Kind, target string) (ID, error) {
	if pkg == "" {
		return ID{}, fmt.Errorf("binaryid: package name must not be empty")
	}
	if target == "" && kind != KindLib && kind != KindProcMacro {
		return ID{}, fmt.Errorf("binaryid: target name must not be empty for kind %q", kind)
	}
	return ID{pkg: pkg, kind: kind, target: target}, nil
}

// Package returns the owning package name.
func (id ID) Package() string { return id.pkg }

// Kind returns the target kind.
func (id ID) Kind() Kind { return id.kind }

// Target returns the target name (may be empty for lib/proc-macro).
func (id ID) Target() string { return id.target }

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id.pkg == "" }

// String renders the canonical display form described in the ID doc
// comment. This is the form stored in test lists, record-store archives,
// and shown to users.
func (id ID) String() string {
	switch id.kind {
	case KindLib, KindProcMacro:
		return id.pkg
	case KindTest:
		return id.pkg + "::" + id.target
	default:
		return id.pkg + "::" + string(id.kind) + "/" + id.target
	}
}

// Parse reconstructs an ID from its canonical display form. Because the
// "package-only" form is used for both KindLib and KindProcMacro, Parse
// cannot recover which of the two produced a bare package name; it
// resolves that ambiguity to KindLib. Callers that need to distinguish
// proc-macro crates must track that out of band (as the build-system
// collaborator does) and use FromParts directly instead of Parse.
//
// Parse is the inverse of String for every other Kind: for any ID
// produced by FromParts with a non-lib/proc-macro kind,
// Parse(id.String()) == id.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("binaryid: cannot parse empty string")
	}

	pkg, rest, hasSep := s, "", false
	if i := strings.LastIndex(s, "::"); i >= 0 {
		pkg, rest, hasSep = s[:i], s[i+2:], true
	}
	if pkg == "" {
		return ID{}, fmt.Errorf("binaryid: %q has empty package component", s)
	}
	if !hasSep {
		return ID{pkg: pkg, kind: KindLib, target: ""}, nil
	}

	if kind, target, hasSlash := strings.Cut(rest, "/"); hasSlash {
		k := Kind(kind)
		if target == "" {
			return ID{}, fmt.Errorf("binaryid: %q has empty target component", s)
		}
		return ID{pkg: pkg, kind: k, target: target}, nil
	}

	if rest == "" {
		return ID{}, fmt.Errorf("binaryid: %q has empty target component", s)
	}
	return ID{pkg: pkg, kind: KindTest, target: rest}, nil
}

// Compare orders two IDs by their structured components (package, then
// kind rank, then target), not by comparing their String() forms. Returns
// a negative number if a sorts before b, zero if equal, positive otherwise.
func Compare(a, b ID) int {
	if a.pkg != b.pkg {
		if a.pkg < b.pkg {
			return -1
		}
		return 1
	}
	if ar, br := a.kind.rank(), b.kind.rank(); ar != br {
		return ar - br
	}
	if a.target != b.target {
		if a.target < b.target {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether a sorts before b in canonical order.
func Less(a, b ID) bool { return Compare(a, b) < 0 }

// SortIDs sorts ids in place in canonical order.
func SortIDs(ids []ID) {
	// Insertion sort is adequate: binary catalogs are small (tens to low
	// thousands of entries) and this keeps the package dependency-free.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && Less(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
