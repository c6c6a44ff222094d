package examflow

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoaded        = errors.New("questions not loaded")
	ErrNoQuestions      = errors.New("exam has no questions")
	ErrQuestionIndex    = errors.New("question index out of range")
	ErrInvalidOption    = errors.New("invalid answer option")
	ErrAlreadySubmitted = errors.New("answers already submitted")
	ErrIncomplete       = errors.New("not every question is answered")
)

// FetchError reports a backend failure while loading the exam.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IncompleteError is the validation failure of Submit. It never involves
// the backend.
type IncompleteError struct {
	// Unanswered holds zero-based question indexes without a selection.
	Unanswered []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d of the questions are unanswered", len(e.Unanswered))
}

func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }
