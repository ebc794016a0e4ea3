package domain

import (
	"fmt"
	"time"
)

// Translation carries a localized rendering of a question.
type Translation struct {
	Prompt      string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category,omitempty"`
}

// Question is a single multiple-choice TOEIC question. Immutable once
// fetched into a session.
type Question struct {
	ID            int64                  `json:"id"`
	Category      string                 `json:"category"`
	Prompt        string                 `json:"question"`
	Options       []string               `json:"options"`
	CorrectAnswer int                    `json:"correctAnswer"`
	Explanation   string                 `json:"explanation"`
	Translations  map[string]Translation `json:"translations,omitempty"`
	Source        string                 `json:"source,omitempty"`
}

// Validate rejects malformed questions at the API boundary so the session
// core never has to re-check option bounds.
func (q Question) Validate() error {
	if len(q.Options) < 2 || len(q.Options) > 4 {
		return fmt.Errorf("question %d: expected 2-4 options, got %d", q.ID, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %d: correct answer %d out of range", q.ID, q.CorrectAnswer)
	}
	return nil
}

// Attempt is the persisted record of one completed quiz session. Written
// exactly once per completion and never mutated afterward.
type Attempt struct {
	ID               int64         `json:"id,omitempty"`
	UserID           string        `json:"userId"`
	Date             time.Time     `json:"date"`
	Score            int           `json:"score"`
	TotalQuestions   int           `json:"totalQuestions"`
	Category         string        `json:"category"`
	WrongQuestionIDs []int64       `json:"wrongQuestionIds"`
	UserAnswers      map[int64]int `json:"userAnswers"`
}

// Category describes a study sector (e.g. "Part 5: Incomplete Sentences").
type Category struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	Bg           string `json:"bg"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
}

// RankingRow is one entry of the all-time top scorers board.
type RankingRow struct {
	UserID       string `json:"userId"`
	Nickname     string `json:"nickname"`
	TotalScore   int    `json:"totalScore"`
	MissionCount int    `json:"missionCount"`
}

// Pagination describes one page of a listing response.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// QuestionPage is a paginated question listing.
type QuestionPage struct {
	Data       []Question `json:"data"`
	Pagination Pagination `json:"pagination"`
}
