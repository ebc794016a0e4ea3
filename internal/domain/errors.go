package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired is returned when a quiz is started without a resolvable user.
	ErrAuthRequired = errors.New("authentication required")
	// ErrDailyLimitReached is the gating error for free-tier users who already
	// used their daily quiz starts. Not retryable until the next UTC day.
	ErrDailyLimitReached = errors.New("daily limit reached")
	// ErrEmptyCategory indicates the category exists but has no questions.
	ErrEmptyCategory = errors.New("no questions available for this category")
	// ErrAnswerFinal is returned when a different answer is submitted for a
	// question that already has a recorded answer (first answer wins).
	ErrAnswerFinal = errors.New("answer already recorded for this question")
	// ErrSessionNotActive is returned when a transition requires an active quiz.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrInvalidAnswer indicates a question or option index out of range.
	ErrInvalidAnswer = errors.New("answer out of range")
	// ErrSessionNotFound is returned when no session exists for the user.
	ErrSessionNotFound = errors.New("quiz session not found")
)

// ConnectionError wraps a transport failure while talking to the question
// source. The caller may retry by starting the quiz again.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error allows an immediate retry of StartQuiz.
func IsRetryable(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
