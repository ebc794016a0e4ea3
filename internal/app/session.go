package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"toeic-quiz-service/internal/domain"
)

// QuestionSource fetches quiz questions scoped to a category and a user.
// An empty category means "all categories". The source is responsible for
// daily-attempt gating and reports it as domain.ErrDailyLimitReached.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, category, userID string) ([]domain.Question, error)
}

// AttemptStore persists completed quiz attempts for ranking and analytics.
// SaveAttempt returns the id assigned to the stored attempt.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) (int64, error)
}

// Phase is the lifecycle state of a quiz session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// persistTimeout bounds the detached attempt write after completion.
const persistTimeout = 10 * time.Second

// Session is the quiz state machine for a single user. It owns the question
// list, the current position, the recorded answers and the derived score.
// Every transition runs under the session mutex, so concurrent triggers
// (double clicks, racing key and pointer events) cannot produce lost updates.
type Session struct {
	userID string

	source QuestionSource
	store  AttemptStore
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	phase     Phase
	category  string
	questions []domain.Question
	current   int
	answers   map[int]int
	score     int
	startGen  uint64

	// persistDone is closed after the completion-time attempt write finishes
	// (successfully or not). Nil until the session completes.
	persistDone chan struct{}
}

// Snapshot is the read-only view of a session exposed to transports.
type Snapshot struct {
	Questions    []domain.Question `json:"questions"`
	CurrentIndex int               `json:"currentQuestionIndex"`
	Score        int               `json:"score"`
	ShowResults  bool              `json:"showResults"`
	Answers      map[int]int       `json:"answers"`
	Active       bool              `json:"isActive"`
	Category     string            `json:"category"`
}

// NewSession creates an idle session for the given user.
func NewSession(userID string, source QuestionSource, store AttemptStore, logger *zap.Logger) *Session {
	return newSessionWithClock(userID, source, store, logger, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(userID string, source QuestionSource, store AttemptStore, logger *zap.Logger, now func() time.Time) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		userID:  userID,
		source:  source,
		store:   store,
		logger:  logger,
		now:     now,
		phase:   PhaseIdle,
		answers: make(map[int]int),
	}
}

// StartQuiz fetches questions for the category and activates the session.
// On any failure the previous session state is left untouched. A start that
// was superseded by a later StartQuiz call never commits its questions
// (last call wins).
func (s *Session) StartQuiz(ctx context.Context, category string) error {
	if s.userID == "" {
		return domain.ErrAuthRequired
	}

	s.mu.Lock()
	s.startGen++
	gen := s.startGen
	s.mu.Unlock()

	// Fetch outside the lock; local transitions stay responsive while the
	// request is in flight.
	questions, err := s.source.FetchQuestions(ctx, category, s.userID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return domain.ErrEmptyCategory
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return &domain.ConnectionError{Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.startGen {
		// A later StartQuiz superseded this fetch.
		return nil
	}
	s.phase = PhaseActive
	s.category = category
	s.questions = questions
	s.current = 0
	s.answers = make(map[int]int)
	s.score = 0
	s.persistDone = nil
	return nil
}

// SetAnswer records the selected option for a question. The first recorded
// answer for a question is final within the session: repeating it is a no-op,
// submitting a different option returns domain.ErrAnswerFinal.
func (s *Session) SetAnswer(questionIndex, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return domain.ErrSessionNotActive
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return domain.ErrInvalidAnswer
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[questionIndex].Options) {
		return domain.ErrInvalidAnswer
	}
	if recorded, ok := s.answers[questionIndex]; ok {
		if recorded != optionIndex {
			return domain.ErrAnswerFinal
		}
		return nil
	}
	s.answers[questionIndex] = optionIndex
	return nil
}

// NextQuestion advances to the next question, or runs the completion protocol
// when called on the last one. Calling it again after completion is a no-op;
// the attempt is written exactly once.
func (s *Session) NextQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return domain.ErrSessionNotActive
	}
	if s.current < len(s.questions)-1 {
		s.current++
		return nil
	}
	s.completeLocked()
	return nil
}

// PrevQuestion moves back one question. No-op at index 0.
func (s *Session) PrevQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return domain.ErrSessionNotActive
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// ResetQuiz restarts the session over the already-loaded question list
// without refetching. Answers, score and position are cleared.
func (s *Session) ResetQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.questions) == 0 {
		return domain.ErrSessionNotActive
	}
	s.phase = PhaseActive
	s.current = 0
	s.answers = make(map[int]int)
	s.score = 0
	s.persistDone = nil
	return nil
}

// EndQuiz abandons the session regardless of phase. In-progress answers are
// discarded and no attempt is persisted: exiting mid-quiz is not a completion.
// Bumping the generation invalidates any start still fetching, so a slow
// fetch cannot reactivate an ended session.
func (s *Session) EndQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startGen++
	s.phase = PhaseIdle
	s.questions = nil
	s.current = 0
	s.answers = make(map[int]int)
	s.score = 0
	s.category = ""
}

// Snapshot returns a copy of the observable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	questions := make([]domain.Question, len(s.questions))
	copy(questions, s.questions)

	return Snapshot{
		Questions:    questions,
		CurrentIndex: s.current,
		Score:        s.score,
		ShowResults:  s.phase == PhaseCompleted,
		Answers:      answers,
		Active:       s.phase == PhaseActive,
		Category:     s.category,
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// completeLocked computes the final score, transitions to Completed and
// launches the single best-effort attempt write. Unanswered questions count
// neither as correct nor as wrong.
func (s *Session) completeLocked() {
	score := 0
	wrongIDs := make([]int64, 0)
	userAnswers := make(map[int64]int, len(s.answers))

	for i, q := range s.questions {
		answer, answered := s.answers[i]
		if !answered {
			continue
		}
		userAnswers[q.ID] = answer
		if answer == q.CorrectAnswer {
			score++
		} else {
			wrongIDs = append(wrongIDs, q.ID)
		}
	}

	s.score = score
	s.phase = PhaseCompleted

	category := s.category
	if category == "" && len(s.questions) > 0 {
		category = s.questions[0].Category
	}

	attempt := domain.Attempt{
		UserID:           s.userID,
		Date:             s.now(),
		Score:            score,
		TotalQuestions:   len(s.questions),
		Category:         category,
		WrongQuestionIDs: wrongIDs,
		UserAnswers:      userAnswers,
	}

	done := make(chan struct{})
	s.persistDone = done

	// Best-effort persistence: the results screen must never wait on, or be
	// blocked by, the analytics write. Failures are logged and dropped.
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if _, err := s.store.SaveAttempt(ctx, attempt); err != nil {
			s.logger.Warn("attempt write failed",
				zap.String("userId", attempt.UserID),
				zap.String("category", attempt.Category),
				zap.Int("score", attempt.Score),
				zap.Error(err))
		}
	}()
}

// WaitPersisted blocks until the completion-time attempt write has finished,
// or returns immediately if the session has not completed. Used by transports
// that want to flush before shutdown and by tests.
func (s *Session) WaitPersisted(ctx context.Context) error {
	s.mu.Lock()
	done := s.persistDone
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
