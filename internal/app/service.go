package app

import (
	"context"

	"go.uber.org/zap"

	"toeic-quiz-service/internal/domain"
)

// SessionRegistry abstracts how per-user sessions are tracked (in-memory,
// Redis-backed liveness, etc).
type SessionRegistry interface {
	GetOrCreate(userID string, create func() *Session) *Session
	Get(userID string) (*Session, bool)
	Delete(userID string)
}

// QuizService owns one quiz session per user and wires sessions to the
// question source and the attempt store.
type QuizService struct {
	sessions SessionRegistry
	source   QuestionSource
	store    AttemptStore
	logger   *zap.Logger
}

func NewQuizService(sessions SessionRegistry, source QuestionSource, store AttemptStore, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{sessions: sessions, source: source, store: store, logger: logger}
}

// StartQuiz starts (or restarts) the user's quiz for a category. The question
// source enforces daily gating; gating and transport errors pass through
// verbatim so transports can render a specific message per kind.
func (s *QuizService) StartQuiz(ctx context.Context, userID, category string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, domain.ErrAuthRequired
	}
	session := s.sessions.GetOrCreate(userID, func() *Session {
		return NewSession(userID, s.source, s.store, s.logger.With(zap.String("userId", userID)))
	})
	if err := session.StartQuiz(ctx, category); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Session returns the user's session, if any.
func (s *QuizService) Session(userID string) (*Session, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EndQuiz abandons the user's session and drops it from the registry.
func (s *QuizService) EndQuiz(userID string) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	session.EndQuiz()
	s.sessions.Delete(userID)
}
