package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"toeic-quiz-service/internal/app"
	"toeic-quiz-service/internal/domain"
	"toeic-quiz-service/internal/infra/memory"
)

type playSource []domain.Question

func (s playSource) FetchQuestions(_ context.Context, _, _ string) ([]domain.Question, error) {
	return s, nil
}

func TestRunPlayFullQuiz(t *testing.T) {
	questions := []domain.Question{
		{ID: 1, Category: "Part 5", Prompt: "first", Options: []string{"alpha", "beta"}, CorrectAnswer: 1, Explanation: "Beta fits."},
		{ID: 2, Category: "Part 5", Prompt: "second", Options: []string{"gamma", "delta"}, CorrectAnswer: 0, Explanation: "Gamma fits."},
	}
	store := memory.NewAttemptStore()
	session := app.NewSession("player", playSource(questions), store, zap.NewNop())

	// Correct on Q1, wrong on Q2.
	in := strings.NewReader("B\nB\n")
	var out bytes.Buffer

	if err := runPlay(context.Background(), session, "", in, &out); err != nil {
		t.Fatalf("play: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "Final score: 1/2") {
		t.Fatalf("expected final score line, got:\n%s", output)
	}
	if !strings.Contains(output, "Q2: correct answer was gamma. Gamma fits.") {
		t.Fatalf("expected wrong-answer review line, got:\n%s", output)
	}
	if strings.Contains(output, "Q1: correct answer was") {
		t.Fatalf("correct answers must not appear in the review, got:\n%s", output)
	}

	attempts := store.Attempts()
	if len(attempts) != 1 || attempts[0].Score != 1 {
		t.Fatalf("expected one persisted attempt with score 1, got %+v", attempts)
	}
}

func TestRunPlayDailyLimit(t *testing.T) {
	session := app.NewSession("player", gatedSource{}, memory.NewAttemptStore(), zap.NewNop())
	var out bytes.Buffer

	if err := runPlay(context.Background(), session, "", strings.NewReader(""), &out); err != nil {
		t.Fatalf("expected friendly handling of the daily limit, got %v", err)
	}
	if !strings.Contains(out.String(), "Daily free limit reached") {
		t.Fatalf("expected limit message, got:\n%s", out.String())
	}
}

type gatedSource struct{}

func (gatedSource) FetchQuestions(_ context.Context, _, _ string) ([]domain.Question, error) {
	return nil, domain.ErrDailyLimitReached
}
