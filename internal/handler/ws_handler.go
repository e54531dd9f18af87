package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/attempt"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/service"
	ws "github.com/traindesk/traindesk-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the WebSocket attempt stream: in-flight answer and
// cursor actions from the client, countdown ticks and the final result
// from the server.
type WSHandler struct {
	attemptService *service.AttemptService
	resultService  *service.ResultService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, resultService *service.ResultService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		resultService:  resultService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/learner/evaluations/:evaluation_id/stream
// Upgrades to WebSocket for real-time attempt actions and countdown ticks.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID

	machine, err := h.attemptService.Machine(c.Request.Context(), userID, evaluationID)
	if err != nil {
		ws.WriteError(conn, "no attempt in progress for this evaluation")
		return
	}

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("evaluation_id", evaluationID.String()).
		Logger()

	wsLog.Info().Msg("Learner connected")

	// Ticks and action replies share one connection, so writes are
	// serialized through a mutex.
	var writeMu sync.Mutex
	write := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = ws.WriteTyped(conn, v)
	}

	done := make(chan struct{})
	defer close(done)
	go h.streamTicks(conn, machine, userID, evaluationID, done, write, wsLog)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(userID, evaluationID, &msg, write)
		case ws.ActionGoto:
			h.handleGoto(userID, evaluationID, &msg, write)
		case ws.ActionSubmit:
			h.handleSubmit(userID, evaluationID, write, wsLog)
			return
		case ws.ActionPing:
			writeMu.Lock()
			_ = ws.WritePong(conn)
			writeMu.Unlock()
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// streamTicks pushes the countdown once per second and delivers the
// expiry result the moment the machine closes itself.
func (h *WSHandler) streamTicks(conn *websocket.Conn, machine *attempt.Machine, userID int, evaluationID uuid.UUID, done <-chan struct{}, write func(interface{}), wsLog zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := machine.Snapshot()

			if snap.Status == model.AttemptStatusExpired {
				h.pushExpiry(userID, evaluationID, write, wsLog)
				conn.Close()
				return
			}
			if snap.Status.Terminal() {
				return
			}
			if snap.TimeRemainingSeconds != attempt.Untimed {
				write(ws.TickResponse{Event: ws.EventTick, TimeRemainingSeconds: snap.TimeRemainingSeconds})
			}
		}
	}
}

// pushExpiry fetches the stored expiry result. The timer callback races
// with this read, so it retries briefly before giving up.
func (h *WSHandler) pushExpiry(userID int, evaluationID uuid.UUID, write func(interface{}), wsLog zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 10; i++ {
		result, err := h.resultService.GetLatestForUser(ctx, userID, evaluationID)
		if err == nil {
			write(ws.ResultResponse{
				Event:       ws.EventExpired,
				Status:      string(result.Status),
				Score:       result.Score,
				TotalPoints: result.TotalPoints,
				Percentage:  result.Percentage,
				IsPassed:    result.IsPassed,
			})
			wsLog.Info().Int("percentage", result.Percentage).Msg("Expiry result delivered")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt expired"})
}

func (h *WSHandler) handleAnswer(userID int, evaluationID uuid.UUID, msg *ws.RequestPayload, write func(interface{})) {
	if msg.QID == "" {
		write(ws.ErrorResponse{Event: ws.EventError, Error: "q_id is required"})
		return
	}
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		write(ws.ErrorResponse{Event: ws.EventError, Error: "invalid q_id format"})
		return
	}

	answer := msg.Answer
	req := &model.AttemptActionRequest{QuestionID: &questionID, Answer: &answer}
	if _, err := h.attemptService.Apply(context.Background(), userID, evaluationID, req); err != nil {
		if errors.Is(err, attempt.ErrClosed) {
			write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt is closed"})
			return
		}
		if errors.Is(err, attempt.ErrUnknownQuestion) {
			write(ws.ErrorResponse{Event: ws.EventError, Error: "question is not part of this evaluation"})
			return
		}
		write(ws.ErrorResponse{Event: ws.EventError, Error: "save failed"})
		return
	}

	write(ws.SuccessResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleGoto(userID int, evaluationID uuid.UUID, msg *ws.RequestPayload, write func(interface{})) {
	if msg.Index == nil {
		write(ws.ErrorResponse{Event: ws.EventError, Error: "index is required"})
		return
	}

	req := &model.AttemptActionRequest{GotoIndex: msg.Index}
	if _, err := h.attemptService.Apply(context.Background(), userID, evaluationID, req); err != nil {
		if errors.Is(err, attempt.ErrClosed) {
			write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt is closed"})
			return
		}
		write(ws.ErrorResponse{Event: ws.EventError, Error: "navigation failed"})
		return
	}

	write(ws.SuccessResponse{Event: ws.EventSuccess, Status: "moved"})
}

func (h *WSHandler) handleSubmit(userID int, evaluationID uuid.UUID, write func(interface{}), wsLog zerolog.Logger) {
	result, _, err := h.attemptService.Submit(context.Background(), userID, evaluationID)
	if err != nil {
		if errors.Is(err, attempt.ErrClosed) {
			write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt is closed"})
			return
		}
		wsLog.Error().Err(err).Msg("Submit error")
		write(ws.ErrorResponse{Event: ws.EventError, Error: "submit failed"})
		return
	}

	wsLog.Info().
		Int("score", result.Score).
		Int("percentage", result.Percentage).
		Bool("passed", result.IsPassed).
		Msg("Attempt submitted and graded")

	write(ws.ResultResponse{
		Event:       ws.EventResult,
		Status:      string(result.Status),
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Percentage:  result.Percentage,
		IsPassed:    result.IsPassed,
	})
}
