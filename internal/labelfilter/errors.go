package labelfilter

import (
	"errors"
	"fmt"
)

// Kind classifies a filter validation failure.
type Kind int

// Kind values.
const (
	KindInvalidSyntax Kind = iota + 1
	KindDuplicateFilter
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidSyntax:
		return "InvalidSyntax"
	case KindDuplicateFilter:
		return "DuplicateFilter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinel errors usable with errors.Is against a *ValidationError.
var (
	ErrInvalidSyntax   = errors.New("invalid filter syntax")
	ErrDuplicateFilter = errors.New("duplicate filter")
)

// Messages shown to the user.
const (
	InvalidSyntaxMessage   = "Filters must be of the format labelKey:labelValue and contain accepted label characters"
	DuplicateFilterMessage = "No duplicate filters allowed"
)

// LabelDocsURL points at the Kubernetes label syntax reference.
const LabelDocsURL = "https://kubernetes.io/docs/concepts/overview/working-with-objects/labels/#syntax-and-character-set"

// HelpLink is optional reference material attached to a validation error.
type HelpLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// ValidationError is a recoverable, user-displayable rejection of filter
// input.
type ValidationError struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Link    *HelpLink `json:"link,omitempty"`

	// Detail carries the underlying cause, if any. It is not shown to users.
	Detail string `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}

	return e.Message
}

// Is reports whether target is the sentinel for e's kind.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case KindInvalidSyntax:
		return target == ErrInvalidSyntax
	case KindDuplicateFilter:
		return target == ErrDuplicateFilter
	}

	return false
}

func newInvalidSyntax(detail string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidSyntax,
		Message: InvalidSyntaxMessage,
		Link: &HelpLink{
			URL:  LabelDocsURL,
			Text: "See the Kubernetes Label documentation for valid syntax",
		},
		Detail: detail,
	}
}

func newDuplicateFilter(t Token) *ValidationError {
	return &ValidationError{
		Kind:    KindDuplicateFilter,
		Message: DuplicateFilterMessage,
		Detail:  string(t),
	}
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}
