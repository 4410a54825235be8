// Package spec contains the immutable selectors callers use to choose
// which packages, features, build targets and test functions to work on.
package spec

import (
	"fmt"
	"strings"
)

type nameMode uint8

const (
	nameExact nameMode = iota
	nameWildcard
)

// NameSpec selects test functions by name. It is either an exact name or a
// wildcard pattern where '*' matches zero or more characters. Matching is
// case sensitive and anchored at both ends.
type NameSpec struct {
	mode  nameMode
	value string
}

// Exact matches only the given name.
func Exact(name string) NameSpec {
	return NameSpec{mode: nameExact, value: name}
}

// Wildcard matches names against pattern. A pattern without '*' behaves
// like Exact.
func Wildcard(pattern string) NameSpec {
	return NameSpec{mode: nameWildcard, value: pattern}
}

// Any matches every name.
func Any() NameSpec {
	return Wildcard("*")
}

// Substring matches names containing s, which is libtest's default filter.
func Substring(s string) NameSpec {
	return Wildcard("*" + s + "*")
}

// IsExact reports whether the spec only accepts one literal name.
func (n NameSpec) IsExact() bool {
	return n.mode == nameExact
}

// Value returns the name or pattern.
func (n NameSpec) Value() string {
	return n.value
}

// Matches reports whether name is selected.
func (n NameSpec) Matches(name string) bool {
	switch n.mode {
	case nameExact:
		return name == n.value
	case nameWildcard:
		return MatchWildcard(n.value, name)
	}
	return false
}

func (n NameSpec) String() string {
	switch n.mode {
	case nameExact:
		return fmt.Sprintf("exact(%s)", n.value)
	default:
		return fmt.Sprintf("wildcard(%s)", n.value)
	}
}

// MatchWildcard reports whether s matches pattern in full. '*' matches any
// run of bytes, including an empty one; every other byte is literal.
func MatchWildcard(pattern, s string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	// Greedy match with a single backtrack point, the last '*' seen.
	p, i := 0, 0
	star, mark := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = i
			p++
		case p < len(pattern) && pattern[p] == s[i]:
			p++
			i++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
