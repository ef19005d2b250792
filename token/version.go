package token

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// A Version selects one of the Python dialects this engine understands.
// It gates keyword sets, grammar branches and (further up the stack) builtin
// signatures and semantic rules, per spec §6 "Language-version selector".
type Version struct {
	semver *semver.Version
}

// Supported versions, in ascending order.
var (
	V26 = MustParseVersion("2.6")
	V27 = MustParseVersion("2.7")
	V30 = MustParseVersion("3.0")
	V31 = MustParseVersion("3.1")
	V32 = MustParseVersion("3.2")
	V33 = MustParseVersion("3.3")
	V34 = MustParseVersion("3.4")
	V35 = MustParseVersion("3.5")
	V36 = MustParseVersion("3.6")
	V37 = MustParseVersion("3.7")
)

// ParseVersion parses a "major.minor" string into a Version.
func ParseVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	return Version{semver: v}, nil
}

// MustParseVersion is ParseVersion but panics on error; used for the package-level constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major version number (2 or 3).
func (v Version) Major() int { return int(v.semver.Major()) }

// Minor returns the minor version number.
func (v Version) Minor() int { return int(v.semver.Minor()) }

// AtLeast returns true if v >= other.
func (v Version) AtLeast(other Version) bool {
	return v.semver.Compare(other.semver) >= 0
}

// Is2 returns true for any 2.x dialect.
func (v Version) Is2() bool { return v.Major() == 2 }

// Is3 returns true for any 3.x dialect.
func (v Version) Is3() bool { return v.Major() == 3 }

// SupportsAsyncAwait is true from 3.5 onward, where async/await became keywords
// rather than ordinary identifiers.
func (v Version) SupportsAsyncAwait() bool { return v.AtLeast(V35) }

// SupportsNonlocal is true for any 3.x dialect (nonlocal doesn't exist in 2.x).
func (v Version) SupportsNonlocal() bool { return v.Is3() }

// SupportsFStrings is true from 3.6 onward.
func (v Version) SupportsFStrings() bool { return v.AtLeast(V36) }

// SupportsMatMul is true from 3.5 onward (the @ operator).
func (v Version) SupportsMatMul() bool { return v.AtLeast(V35) }

// SupportsVariableAnnotations is true from 3.6 onward (`x: int = 1`).
func (v Version) SupportsVariableAnnotations() bool { return v.AtLeast(V36) }

// TrueDivisionDefault is true for 3.x, where `/` always produces float.
// In 2.x it requires `from __future__ import division`.
func (v Version) TrueDivisionDefault() bool { return v.Is3() }

// ComprehensionsHaveOwnScope is true for 3.x; in 2.x only generator expressions do.
func (v Version) ComprehensionsHaveOwnScope() bool { return v.Is3() }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// keywords2 and keywords3 list the reserved words for each major version.
// print and exec are keywords only in 2.x; async/await/nonlocal only enter in 3.x
// (await/async formally only from 3.5, but we treat them as reserved across all
// of 3.x for simplicity, matching how most real-world 3.0-3.4 code never used them
// as identifiers anyway).
var keywords2 = map[string]bool{
	"and": true, "as": true, "assert": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "exec": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "not": true, "or": true, "pass": true, "print": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true,
	"yield": true, "None": true, "True": true, "False": true,
}

var keywords3 = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true, "None": true, "True": true, "False": true,
}

// Keywords returns the reserved-word set active for this version.
func (v Version) Keywords() map[string]bool {
	if v.Is2() {
		return keywords2
	}
	return keywords3
}

// IsKeyword reports whether name is reserved under this version.
func (v Version) IsKeyword(name string) bool {
	return v.Keywords()[name]
}
