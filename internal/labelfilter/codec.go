package labelfilter

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// QueryParam is the URL query parameter holding the active filters.
const QueryParam = "labelSelector"

// labelChars is the accepted character class for keys and values.
const labelChars = `[a-zA-Z0-9\-_./]+`

// inputPattern accepts one or more key:value pairs separated by commas,
// with an optional trailing comma.
var inputPattern = regexp.MustCompile(`^` + labelChars + `:` + labelChars + `(,` + labelChars + `:` + labelChars + `)*,?$`)

// MergePolicy decides how repeated labelSelector parameters are combined.
type MergePolicy int

// MergePolicy values.
const (
	// LastWins keeps only the last labelSelector parameter.
	LastWins MergePolicy = iota
	// Merge flattens every labelSelector parameter in order.
	Merge
)

// String returns the policy name used in configuration.
func (p MergePolicy) String() string {
	if p == Merge {
		return "merge"
	}

	return "last-wins"
}

// ParseMergePolicy converts a configuration value into a MergePolicy.
func ParseMergePolicy(s string) (MergePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-wins", "lastwins", "last":
		return LastWins, true
	case "merge":
		return Merge, true
	default:
		return LastWins, false
	}
}

// ParseInput turns raw search-field text into canonical tokens.
// Whitespace is stripped, `:` separators become `=`, and duplicates are
// dropped keeping first-seen order. Text that does not match the
// `key:value[,key:value...]` grammar yields a KindInvalidSyntax error.
func ParseInput(raw string) ([]Token, error) {
	compact := stripSpace(raw)

	if !inputPattern.MatchString(compact) {
		return nil, newInvalidSyntax(compact)
	}

	canonical := strings.ReplaceAll(compact, ":", "=")

	parts := strings.Split(canonical, ",")
	tokens := make([]Token, 0, len(parts))

	for _, p := range parts {
		tokens = append(tokens, Token(p))
	}

	return []Token(dedupe(tokens)), nil
}

// stripSpace drops every Unicode white space rune, including no-break
// and ideographic spaces.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)
}

// Add appends candidate to existing. It fails with KindDuplicateFilter
// when the first candidate is already active; any later candidate that
// is already active is skipped. existing is never modified.
func Add(existing Set, candidate []Token) (Set, error) {
	out := existing.clone()

	if len(candidate) == 0 {
		return out, nil
	}

	if existing.Contains(candidate[0]) {
		return existing.clone(), newDuplicateFilter(candidate[0])
	}

	for _, t := range candidate {
		if t == "" || out.Contains(t) {
			continue
		}

		out = append(out, t)
	}

	return out, nil
}

// Remove returns existing without the first occurrence of t. When t is
// not present the returned set equals existing.
func Remove(existing Set, t Token) Set {
	out := existing.clone()

	i := out.index(t)
	if i < 0 {
		return out
	}

	return append(out[:i], out[i+1:]...)
}

// Serialize encodes s as a query-string fragment
// (`labelSelector=<comma-joined>`, URL-encoded). An empty set yields "",
// so "no filters" never shows up as an empty parameter.
func Serialize(s Set) string {
	if len(s) == 0 {
		return ""
	}

	return url.Values{QueryParam: {s.String()}}.Encode()
}

// Deserialize reads the active filters from a query string using the
// LastWins policy.
func Deserialize(query string) Set {
	return DeserializeWith(query, LastWins)
}

// DeserializeWith reads the active filters from a query string. A leading
// `?` is accepted. Malformed query strings yield whatever parameters
// could be decoded.
func DeserializeWith(query string, policy MergePolicy) Set {
	values, _ := url.ParseQuery(strings.TrimPrefix(query, "?"))

	occurrences := values[QueryParam]
	if len(occurrences) == 0 {
		return Set{}
	}

	if policy == LastWins {
		occurrences = occurrences[len(occurrences)-1:]
	}

	var tokens []Token

	for _, occ := range occurrences {
		for _, part := range strings.Split(occ, ",") {
			tokens = append(tokens, Token(strings.TrimSpace(part)))
		}
	}

	return dedupe(tokens)
}
