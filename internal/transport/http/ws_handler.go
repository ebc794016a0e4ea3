package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"toeic-quiz-service/internal/app"
	"toeic-quiz-service/internal/domain"
)

// WSHandler drives one quiz session per websocket connection. The client
// sends commands, the server answers each with a fresh state snapshot, so
// answers are always attributed to the index the client acted on.
type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Category string `json:"category"`
}

type answerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message      string `json:"message"`
	LimitReached bool   `json:"limitReached,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"`
}

// ServeWS upgrades the request and runs the command loop until the client
// disconnects. Disconnecting mid-quiz abandons the session without
// persisting an attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	defer h.service.EndQuiz(userID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(r, conn, userID, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, conn *websocket.Conn, userID string, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, errorPayload{Message: "invalid start payload"})
			return
		}
		snapshot, err := h.service.StartQuiz(r.Context(), userID, payload.Category)
		if err != nil {
			h.sendError(conn, startError(err))
			return
		}
		h.sendState(conn, snapshot)

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, errorPayload{Message: "invalid answer payload"})
			return
		}
		h.withSession(conn, userID, func(session *app.Session) error {
			return session.SetAnswer(payload.QuestionIndex, payload.OptionIndex)
		})

	case "next":
		h.withSession(conn, userID, func(session *app.Session) error {
			return session.NextQuestion()
		})

	case "prev":
		h.withSession(conn, userID, func(session *app.Session) error {
			return session.PrevQuestion()
		})

	case "reset":
		h.withSession(conn, userID, func(session *app.Session) error {
			return session.ResetQuiz()
		})

	case "end":
		h.service.EndQuiz(userID)
		send(h.logger, conn, outboundMessage[struct{}]{Type: "ended"})

	default:
		h.sendError(conn, errorPayload{Message: "unsupported message type"})
	}
}

// withSession runs a transition on the user's session and replies with the
// resulting snapshot, or an error payload when the transition was rejected.
func (h *WSHandler) withSession(conn *websocket.Conn, userID string, fn func(*app.Session) error) {
	session, err := h.service.Session(userID)
	if err != nil {
		h.sendError(conn, errorPayload{Message: err.Error()})
		return
	}
	if err := fn(session); err != nil {
		h.sendError(conn, errorPayload{Message: err.Error()})
		return
	}
	h.sendState(conn, session.Snapshot())
}

func startError(err error) errorPayload {
	switch {
	case errors.Is(err, domain.ErrDailyLimitReached):
		return errorPayload{Message: err.Error(), LimitReached: true}
	case errors.Is(err, domain.ErrEmptyCategory), errors.Is(err, domain.ErrAuthRequired):
		return errorPayload{Message: err.Error()}
	default:
		return errorPayload{Message: err.Error(), Retryable: domain.IsRetryable(err)}
	}
}

func (h *WSHandler) sendState(conn *websocket.Conn, snapshot app.Snapshot) {
	msgType := "state"
	if snapshot.ShowResults {
		msgType = "results"
	}
	send(h.logger, conn, outboundMessage[app.Snapshot]{Type: msgType, Payload: snapshot})
}

func (h *WSHandler) sendError(conn *websocket.Conn, payload errorPayload) {
	send(h.logger, conn, outboundMessage[errorPayload]{Type: "error", Payload: payload})
}

func send[T any](logger *zap.Logger, conn *websocket.Conn, msg outboundMessage[T]) {
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("ws write error", zap.Error(err))
	}
}
