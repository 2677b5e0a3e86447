package matcher

import "fmt"

// IntentNotFoundError means the expected intent appears nowhere in the
// service's ranking. This almost always points at a typo in the suite rather
// than a model regression.
type IntentNotFoundError struct {
	Sentence string
	Intent   string
}

func (e *IntentNotFoundError) Error() string {
	return fmt.Sprintf("Intent '%s' was not found. Please check your spelling.", e.Intent)
}
