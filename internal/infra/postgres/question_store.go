package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"toeic-quiz-service/internal/domain"
)

// QuestionStore loads TOEIC questions from Postgres.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, category, question, options, correct_answer, explanation, translations, COALESCE(source, '')`

// LoadQuestions returns every question in the category, or all questions when
// the category is empty.
func (s *QuestionStore) LoadQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+questionColumns+` FROM toeic_questions ORDER BY id`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+questionColumns+` FROM toeic_questions WHERE category=$1 ORDER BY id`, category)
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// ListQuestions returns one page of the filtered question listing.
func (s *QuestionStore) ListQuestions(ctx context.Context, req ListRequest) (domain.QuestionPage, error) {
	where, tail, args := buildListQuery(req, []string{"question", "category", "explanation"})
	countArgs := args[:len(args)-2] // same bindings minus LIMIT/OFFSET

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM toeic_questions `+where, countArgs...).Scan(&total); err != nil {
		return domain.QuestionPage{}, fmt.Errorf("count questions: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM toeic_questions `+where+` `+tail, args...)
	if err != nil {
		return domain.QuestionPage{}, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return domain.QuestionPage{}, err
	}

	norm := req.normalized()
	return domain.QuestionPage{
		Data: questions,
		Pagination: domain.Pagination{
			Total: total,
			Page:  norm.Page,
			Limit: norm.Limit,
			Pages: pages(total, norm.Limit),
		},
	}, nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q               domain.Question
			optionsRaw      []byte
			translationsRaw []byte
		)
		if err := rows.Scan(&q.ID, &q.Category, &q.Prompt, &optionsRaw, &q.CorrectAnswer, &q.Explanation, &translationsRaw, &q.Source); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			return nil, fmt.Errorf("question %d options: %w", q.ID, err)
		}
		if len(translationsRaw) > 0 {
			if err := json.Unmarshal(translationsRaw, &q.Translations); err != nil {
				return nil, fmt.Errorf("question %d translations: %w", q.ID, err)
			}
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
