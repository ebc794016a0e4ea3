package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"toeic-quiz-service/internal/domain"
)

func TestStaticLoaderFiltersByCategory(t *testing.T) {
	loader := NewStaticQuestionLoader(fixtureQuestions())
	ctx := context.Background()

	part5, err := loader.LoadQuestions(ctx, "Part 5")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(part5) != 2 {
		t.Fatalf("expected 2 Part 5 questions, got %d", len(part5))
	}
	for _, q := range part5 {
		if q.Category != "Part 5" {
			t.Fatalf("unexpected category %q", q.Category)
		}
	}

	all, err := loader.LoadQuestions(ctx, "")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 questions, got %d", len(all))
	}

	none, err := loader.LoadQuestions(ctx, "Part 9")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}
}

func TestQuestionCacheServesFromCache(t *testing.T) {
	loader := &countingLoader{questions: fixtureQuestions()}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		questions, err := cache.LoadQuestions(ctx, "Part 5")
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if len(questions) != 3 {
			t.Fatalf("expected 3 questions, got %d", len(questions))
		}
	}
	if got := loader.count(); got != 1 {
		t.Fatalf("expected single loader hit, got %d", got)
	}

	// A different category is a separate cache entry.
	if _, err := cache.LoadQuestions(ctx, "Part 6"); err != nil {
		t.Fatalf("load other: %v", err)
	}
	if got := loader.count(); got != 2 {
		t.Fatalf("expected second loader hit for new category, got %d", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{questions: fixtureQuestions()}
	cache := NewQuestionCache(loader, time.Minute)

	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := cache.LoadQuestions(ctx, "Part 5"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cache.LoadQuestions(ctx, "Part 5"); err != nil {
		t.Fatalf("load cached: %v", err)
	}
	if got := loader.count(); got != 1 {
		t.Fatalf("expected 1 loader hit before expiry, got %d", got)
	}

	// Jitter stretches the TTL by at most 10%.
	now = now.Add(time.Minute + time.Minute/10 + time.Second)
	if _, err := cache.LoadQuestions(ctx, "Part 5"); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if got := loader.count(); got != 2 {
		t.Fatalf("expected refresh after expiry, got %d loader hits", got)
	}
}

func TestQuestionCacheDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{err: errors.New("backend down")}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.LoadQuestions(ctx, "Part 5"); err == nil {
		t.Fatalf("expected load error")
	}

	loader.setQuestions(fixtureQuestions())
	questions, err := cache.LoadQuestions(ctx, "Part 5")
	if err != nil {
		t.Fatalf("load after recovery: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected recovered load, got %d questions", len(questions))
	}
}

func fixtureQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Category: "Part 5", Prompt: "first", Options: []string{"a", "b"}, CorrectAnswer: 0},
		{ID: 2, Category: "Part 5", Prompt: "second", Options: []string{"a", "b", "c"}, CorrectAnswer: 2},
		{ID: 3, Category: "Part 6", Prompt: "third", Options: []string{"x", "y"}, CorrectAnswer: 1},
	}
}

type countingLoader struct {
	mu        sync.Mutex
	questions []domain.Question
	err       error
	calls     int
}

func (l *countingLoader) LoadQuestions(_ context.Context, _ string) ([]domain.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.questions, nil
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *countingLoader) setQuestions(questions []domain.Question) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.questions = questions
	l.err = nil
}
