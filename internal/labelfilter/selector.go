package labelfilter

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Selector converts s into a Kubernetes label selector with AND semantics.
// An empty set selects everything.
func (s Set) Selector() (labels.Selector, error) {
	if len(s) == 0 {
		return labels.Everything(), nil
	}

	sel, err := labels.Parse(s.String())
	if err != nil {
		return nil, fmt.Errorf("building label selector %q: %w", s.String(), err)
	}

	return sel, nil
}

// Matches reports whether lbls carry every key=value pair in s.
// Tokens are compared literally, so sets that Kubernetes would reject as a
// selector still filter predictably.
func (s Set) Matches(lbls map[string]string) bool {
	for _, t := range s {
		v, ok := lbls[t.Key()]
		if !ok || v != t.Value() {
			return false
		}
	}

	return true
}

// ValidateStrict applies the Kubernetes label rules on top of the input
// grammar: keys must be qualified names and values valid label values.
func ValidateStrict(tokens []Token) error {
	for _, t := range tokens {
		var problems []string

		problems = append(problems, validation.IsQualifiedName(t.Key())...)
		problems = append(problems, validation.IsValidLabelValue(t.Value())...)

		if len(problems) > 0 {
			return newInvalidSyntax(fmt.Sprintf("%s: %s", t.Display(), strings.Join(problems, "; ")))
		}
	}

	return nil
}
