package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"toeic-quiz-service/internal/domain"
)

// Client implements app.QuestionSource against the REST API. Gating rejections
// (403 with limitReached) surface as domain.ErrDailyLimitReached; everything
// transport-shaped becomes a retryable domain.ConnectionError.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type gateResponse struct {
	Error        string `json:"error"`
	LimitReached bool   `json:"limitReached"`
	Message      string `json:"message"`
}

// envelope matches the two response shapes of GET /api/questions: a plain
// array, or {data, pagination} when pagination kicked in.
type envelope struct {
	Data []domain.Question `json:"data"`
}

func (c *Client) FetchQuestions(ctx context.Context, category, userID string) ([]domain.Question, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	if userID != "" {
		query.Set("userId", userID)
	}
	reqURL := c.baseURL + "/api/questions"
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.ConnectionError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		var gate gateResponse
		if err := json.NewDecoder(resp.Body).Decode(&gate); err == nil && gate.LimitReached {
			return nil, domain.ErrDailyLimitReached
		}
		return nil, &domain.ConnectionError{Err: fmt.Errorf("questions API returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &domain.ConnectionError{Err: fmt.Errorf("questions API returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ConnectionError{Err: err}
	}

	// The endpoint answers with a bare array, or {data, pagination} when
	// pagination parameters were in play. Accept both.
	var questions []domain.Question
	if err := json.Unmarshal(body, &questions); err == nil {
		return questions, nil
	}
	var wrapped envelope
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, &domain.ConnectionError{Err: err}
	}
	return wrapped.Data, nil
}

// FetchQuestionPage requests one page of the filtered listing.
func (c *Client) FetchQuestionPage(ctx context.Context, category string, page, limit int) (domain.QuestionPage, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/questions?"+query.Encode(), nil)
	if err != nil {
		return domain.QuestionPage{}, &domain.ConnectionError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.QuestionPage{}, &domain.ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.QuestionPage{}, &domain.ConnectionError{Err: fmt.Errorf("questions API returned status %d", resp.StatusCode)}
	}

	var pageResp domain.QuestionPage
	if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
		return domain.QuestionPage{}, &domain.ConnectionError{Err: err}
	}
	return pageResp, nil
}

// SaveAttempt posts a completed attempt to the REST API and returns the id
// the server assigned, satisfying app.AttemptStore for the terminal player;
// server-side sessions write straight to the database store.
func (c *Client) SaveAttempt(ctx context.Context, attempt domain.Attempt) (int64, error) {
	body, err := json.Marshal(attempt)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attempts", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &domain.ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &domain.ConnectionError{Err: fmt.Errorf("attempts API returned status %d", resp.StatusCode)}
	}

	var result struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, &domain.ConnectionError{Err: err}
	}
	return result.ID, nil
}
