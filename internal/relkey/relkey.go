// Package relkey derives document keys for relations between two users.
package relkey

import (
	"errors"
	"strings"
)

// Separator joins the two identifiers of a key. Identifiers issued by the
// identity provider never contain it.
const Separator = "_"

var (
	ErrEmptyID       = errors.New("relkey: empty identifier")
	ErrSeparatorID   = errors.New("relkey: identifier contains separator")
	ErrReflexivePair = errors.New("relkey: identifiers are equal")
)

// Validate reports whether a and b can be combined into a key.
func Validate(a, b string) error {
	if a == "" || b == "" {
		return ErrEmptyID
	}
	if strings.Contains(a, Separator) || strings.Contains(b, Separator) {
		return ErrSeparatorID
	}
	if a == b {
		return ErrReflexivePair
	}
	return nil
}

// Pair returns the same key for (a, b) and (b, a): the lexicographically
// smaller identifier first, then the separator, then the larger one.
func Pair(a, b string) string {
	if a <= b {
		return a + Separator + b
	}
	return b + Separator + a
}

// Directed keys a relation that has a direction, such as an invitation from
// a sender to a recipient. Directed(a, b) and Directed(b, a) differ.
func Directed(from, to string) string {
	return from + Separator + to
}

// Split returns the two identifiers of a key built by Pair or Directed.
func Split(key string) (string, string, bool) {
	return strings.Cut(key, Separator)
}
