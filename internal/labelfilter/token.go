package labelfilter

import "strings"

// Token is a single filter in canonical `key=value` form.
type Token string

// Key returns the label key, or the whole token if it has no separator.
func (t Token) Key() string {
	k, _, _ := strings.Cut(string(t), "=")
	return k
}

// Value returns the label value, or "" if the token has no separator.
func (t Token) Value() string {
	_, v, _ := strings.Cut(string(t), "=")
	return v
}

// Display renders the token the way users type it (`key:value`).
func (t Token) Display() string {
	return strings.ReplaceAll(string(t), "=", ":")
}

// Set is an ordered, duplicate-free collection of tokens.
// The zero value is an empty set.
type Set []Token

// NewSet builds a Set from tokens, keeping the first occurrence of each.
func NewSet(tokens ...Token) Set {
	return dedupe(tokens)
}

// Contains reports whether t is in s.
func (s Set) Contains(t Token) bool {
	return s.index(t) >= 0
}

// Equal reports whether s and other hold the same tokens in the same order.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}

	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}

	return true
}

// Strings returns the tokens as plain strings.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = string(t)
	}

	return out
}

// String joins the tokens with commas.
func (s Set) String() string {
	return strings.Join(s.Strings(), ",")
}

// Display joins the tokens in `key:value` form, the way they are typed.
func (s Set) Display() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.Display()
	}

	return strings.Join(parts, ",")
}

func (s Set) index(t Token) int {
	for i, existing := range s {
		if existing == t {
			return i
		}
	}

	return -1
}

func (s Set) clone() Set {
	if len(s) == 0 {
		return Set{}
	}

	out := make(Set, len(s))
	copy(out, s)

	return out
}

// dedupe keeps the first occurrence of each non-empty token.
func dedupe(tokens []Token) Set {
	seen := make(map[Token]bool, len(tokens))
	out := make(Set, 0, len(tokens))

	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		out = append(out, t)
	}

	return out
}
