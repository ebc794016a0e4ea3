package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"toeic-quiz-service/internal/app"
	"toeic-quiz-service/internal/domain"
	"toeic-quiz-service/internal/infra/postgres"
)

// QuestionLister serves the paginated question listing.
type QuestionLister interface {
	ListQuestions(ctx context.Context, req postgres.ListRequest) (domain.QuestionPage, error)
}

// AttemptRecorder persists attempts posted over the REST API and serves the
// ranking board.
type AttemptRecorder interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) (int64, error)
	Ranking(ctx context.Context, limit int) ([]domain.RankingRow, error)
}

// CategoryLister serves the study sectors.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// APIHandler exposes the REST surface consumed by quiz clients.
type APIHandler struct {
	source     app.QuestionSource
	lister     QuestionLister
	attempts   AttemptRecorder
	categories CategoryLister
	logger     *zap.Logger
}

func NewAPIHandler(source app.QuestionSource, lister QuestionLister, attempts AttemptRecorder, categories CategoryLister, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{source: source, lister: lister, attempts: attempts, categories: categories, logger: logger}
}

// Register mounts the API routes on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/questions", h.handleQuestions)
	mux.HandleFunc("/api/attempts", h.handleAttempts)
	mux.HandleFunc("/api/ranking", h.handleRanking)
	mux.HandleFunc("/api/categories", h.handleCategories)
}

type gatePayload struct {
	Error        string `json:"error"`
	LimitReached bool   `json:"limitReached"`
	Message      string `json:"message"`
}

// handleQuestions serves the question feed. With a userId the daily gate
// applies; with pagination parameters the response switches to
// {data, pagination}, otherwise it is a bare array.
func (h *APIHandler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	category := query.Get("category")
	userID := query.Get("userId")

	paginated := query.Has("page") || query.Has("limit") || query.Has("search")
	if paginated && h.lister != nil {
		req := postgres.ListRequest{
			Page:   atoiDefault(query.Get("page"), 1),
			Limit:  atoiDefault(query.Get("limit"), 20),
			Search: query.Get("search"),
			SortBy: query.Get("sortBy"),
			Order:  query.Get("order"),
		}
		if category != "" {
			req.Filters = map[string]string{"category": category}
		}
		page, err := h.lister.ListQuestions(r.Context(), req)
		if err != nil {
			h.serverError(w, "list questions", err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	questions, err := h.source.FetchQuestions(r.Context(), category, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDailyLimitReached):
			writeJSON(w, http.StatusForbidden, gatePayload{
				Error:        "Daily limit reached",
				LimitReached: true,
				Message:      "1日の無料学習制限（3回）に達しました。プレミアムプランで無制限に学習しましょう！",
			})
		default:
			h.serverError(w, "fetch questions", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var attempt domain.Attempt
	if err := json.NewDecoder(r.Body).Decode(&attempt); err != nil {
		http.Error(w, "invalid attempt payload", http.StatusBadRequest)
		return
	}
	id, err := h.attempts.SaveAttempt(r.Context(), attempt)
	if err != nil {
		h.serverError(w, "save attempt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *APIHandler) handleRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ranking, err := h.attempts.Ranking(r.Context(), 10)
	if err != nil {
		h.serverError(w, "ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *APIHandler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.categories == nil {
		writeJSON(w, http.StatusOK, []domain.Category{})
		return
	}
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *APIHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}
