package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"toeic-quiz-service/internal/domain"
)

func TestFetchQuestionsBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/questions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "Part 5" || r.URL.Query().Get("userId") != "u1" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]domain.Question{
			{ID: 1, Category: "Part 5", Prompt: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	questions, err := client.FetchQuestions(context.Background(), "Part 5", "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != 1 {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestFetchQuestionsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []domain.Question{
				{ID: 7, Category: "Part 6", Prompt: "q7", Options: []string{"x", "y"}, CorrectAnswer: 1},
			},
			"pagination": map[string]int{"total": 1, "page": 1, "limit": 20, "pages": 1},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	questions, err := client.FetchQuestions(context.Background(), "", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != 7 {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestFetchQuestionsGated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":        "Daily limit reached",
			"limitReached": true,
			"message":      "upgrade",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchQuestions(context.Background(), "", "freeuser")
	if !errors.Is(err, domain.ErrDailyLimitReached) {
		t.Fatalf("expected ErrDailyLimitReached, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Fatalf("gating must not be retryable")
	}
}

func TestFetchQuestionsPlainForbiddenIsConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchQuestions(context.Background(), "", "")
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error for non-gate 403, got %v", err)
	}
}

func TestFetchQuestionsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchQuestions(context.Background(), "", "")
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable connection error, got %v", err)
	}
}

func TestFetchQuestionsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	_, err := client.FetchQuestions(context.Background(), "", "")
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error for refused connection, got %v", err)
	}
}

func TestFetchQuestionPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "5" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(domain.QuestionPage{
			Data: []domain.Question{
				{ID: 6, Category: "Part 5", Prompt: "q6", Options: []string{"a", "b"}, CorrectAnswer: 0},
			},
			Pagination: domain.Pagination{Total: 11, Page: 2, Limit: 5, Pages: 3},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	page, err := client.FetchQuestionPage(context.Background(), "Part 5", 2, 5)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if page.Pagination.Pages != 3 || len(page.Data) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSaveAttempt(t *testing.T) {
	var received domain.Attempt
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/attempts" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode attempt: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": 1})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	attempt := domain.Attempt{
		UserID:           "u1",
		Score:            2,
		TotalQuestions:   3,
		Category:         "Part 5",
		WrongQuestionIDs: []int64{3},
		UserAnswers:      map[int64]int{1: 0, 2: 1, 3: 1},
	}
	id, err := client.SaveAttempt(context.Background(), attempt)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected server-assigned id 1, got %d", id)
	}
	if received.UserID != "u1" || received.Score != 2 || len(received.UserAnswers) != 3 {
		t.Fatalf("unexpected attempt received %+v", received)
	}
}

func TestSaveAttemptServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SaveAttempt(context.Background(), domain.Attempt{UserID: "u1"})
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
