package steps

import (
	"errors"
	"fmt"
)

// ErrExternalSynthesis marks a page whose text synthesis kept failing.
var ErrExternalSynthesis = errors.New("external synthesis failed")

type SynthesisError struct {
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrExternalSynthesis, e.Attempts, e.Err)
}

func (e *SynthesisError) Is(target error) bool { return target == ErrExternalSynthesis }

func (e *SynthesisError) Unwrap() error { return e.Err }
