package labelfilter

// InputState is the state of the filter search box.
type InputState int

// InputState values.
const (
	InputIdle InputState = iota
	InputEditing
	InputInvalid
)

// String returns the state name.
func (s InputState) String() string {
	switch s {
	case InputEditing:
		return "editing"
	case InputInvalid:
		return "invalid"
	default:
		return "idle"
	}
}

// InputBox holds the ephemeral text of the search field and the last
// validation error. It never touches the active Set itself.
type InputBox struct {
	// Strict additionally applies the Kubernetes label rules to parsed
	// input before it is added.
	Strict bool

	value string
	state InputState
	err   *ValidationError
}

// Value returns the current text.
func (b *InputBox) Value() string { return b.value }

// State returns the current state.
func (b *InputBox) State() InputState { return b.state }

// Err returns the validation error being shown, if any.
func (b *InputBox) Err() *ValidationError { return b.err }

// SetValue records typed text. A shown error stays visible until it is
// dismissed or a submission succeeds.
func (b *InputBox) SetValue(text string) {
	b.value = text

	if b.state != InputInvalid {
		b.state = InputEditing
	}
}

// Submit parses the text and tries to add it to active. On success the
// box is cleared and the new set returned. On a validation failure the
// error is kept for display and active is returned unchanged.
func (b *InputBox) Submit(active Set) (Set, error) {
	tokens, err := ParseInput(b.value)
	if err == nil && b.Strict {
		err = ValidateStrict(tokens)
	}

	if err == nil {
		var next Set

		next, err = Add(active, tokens)
		if err == nil {
			b.Reset()
			return next, nil
		}
	}

	if ve, ok := AsValidationError(err); ok {
		b.err = ve
		b.state = InputInvalid
	}

	return active, err
}

// Dismiss hides the current error and returns to idle. The typed text is
// kept so it can be corrected.
func (b *InputBox) Dismiss() {
	b.err = nil
	b.state = InputIdle
}

// Reset clears text and error.
func (b *InputBox) Reset() {
	b.value = ""
	b.err = nil
	b.state = InputIdle
}
