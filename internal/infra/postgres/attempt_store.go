package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"toeic-quiz-service/internal/domain"
)

// AttemptStore persists completed quiz attempts.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) (int64, error) {
	wrongIDs, err := json.Marshal(attempt.WrongQuestionIDs)
	if err != nil {
		return 0, fmt.Errorf("marshal wrong question ids: %w", err)
	}
	answers, err := json.Marshal(stringKeyed(attempt.UserAnswers))
	if err != nil {
		return 0, fmt.Errorf("marshal user answers: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO toeic_attempts (user_id, date, score, total_questions, category, wrong_question_ids, user_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		attempt.UserID, attempt.Date, attempt.Score, attempt.TotalQuestions, attempt.Category, wrongIDs, answers).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// CountToday counts the user's attempts since UTC midnight. The database
// clock is authoritative so gating stays consistent across app instances.
func (s *AttemptStore) CountToday(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM toeic_attempts
		WHERE user_id = $1 AND date >= date_trunc('day', now() AT TIME ZONE 'utc')`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// Ranking returns the top scorers across all attempts.
func (s *AttemptStore) Ranking(ctx context.Context, limit int) ([]domain.RankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT a.user_id,
		       COALESCE(MAX(u.nickname), a.user_id) AS nickname,
		       COALESCE(SUM(a.score), 0) AS total_score,
		       COUNT(a.id) AS mission_count
		FROM toeic_attempts a
		LEFT JOIN toeic_users u ON a.user_id = u.user_id
		GROUP BY a.user_id
		ORDER BY total_score DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	defer rows.Close()

	ranking := make([]domain.RankingRow, 0, limit)
	for rows.Next() {
		var row domain.RankingRow
		if err := rows.Scan(&row.UserID, &row.Nickname, &row.TotalScore, &row.MissionCount); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		ranking = append(ranking, row)
	}
	return ranking, rows.Err()
}

// RecentByUser returns the user's latest attempts, newest first.
func (s *AttemptStore) RecentByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, date, score, total_questions, category, wrong_question_ids, user_answers
		FROM toeic_attempts
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0, limit)
	for rows.Next() {
		var (
			a          domain.Attempt
			wrongRaw   []byte
			answersRaw []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Date, &a.Score, &a.TotalQuestions, &a.Category, &wrongRaw, &answersRaw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if len(wrongRaw) > 0 {
			if err := json.Unmarshal(wrongRaw, &a.WrongQuestionIDs); err != nil {
				return nil, fmt.Errorf("attempt %d wrong ids: %w", a.ID, err)
			}
		}
		if len(answersRaw) > 0 {
			keyed := make(map[string]int)
			if err := json.Unmarshal(answersRaw, &keyed); err != nil {
				return nil, fmt.Errorf("attempt %d answers: %w", a.ID, err)
			}
			a.UserAnswers = intKeyed(keyed)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// JSON object keys must be strings; question IDs round-trip through decimal.
func stringKeyed(m map[int64]int) map[string]int {
	out := make(map[string]int, len(m))
	for id, answer := range m {
		out[strconv.FormatInt(id, 10)] = answer
	}
	return out
}

func intKeyed(m map[string]int) map[int64]int {
	out := make(map[int64]int, len(m))
	for key, answer := range m {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			out[id] = answer
		}
	}
	return out
}
