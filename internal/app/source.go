package app

import (
	"context"

	"toeic-quiz-service/internal/domain"
)

// QuestionLoader fetches question content for a category from a backing
// store (Postgres, static fixtures, a cache layer). An empty category means
// "all categories". Loaders know nothing about users or gating.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, category string) ([]domain.Question, error)
}

// GatedQuestionSource combines the daily gate with a question loader to form
// the QuestionSource a session consumes. The gate runs before the loader so a
// gated user never warms the cache.
type GatedQuestionSource struct {
	gate   *Gate
	loader QuestionLoader
}

func NewGatedQuestionSource(gate *Gate, loader QuestionLoader) *GatedQuestionSource {
	return &GatedQuestionSource{gate: gate, loader: loader}
}

func (s *GatedQuestionSource) FetchQuestions(ctx context.Context, category, userID string) ([]domain.Question, error) {
	if s.gate != nil {
		if err := s.gate.Check(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s.loader.LoadQuestions(ctx, category)
}
