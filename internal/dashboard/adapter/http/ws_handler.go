package http

import (
	"context"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// JobStreamHandler pushes form generation job snapshots over a WebSocket
// until the job completes, fails, or the client goes away.
type JobStreamHandler struct {
	forms FormGeneratorService
	log   logger.Logger
}

func NewJobStreamHandler(forms FormGeneratorService, log logger.Logger) *JobStreamHandler {
	return &JobStreamHandler{
		forms: forms,
		log:   log.WithComponent("job_stream"),
	}
}

func (h *JobStreamHandler) RegisterRoutes(router fiber.Router, middleware ...fiber.Handler) {
	ws := router.Group("/ws", middleware...)

	ws.Use("/form-generator/jobs", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	ws.Get("/form-generator/jobs/:jobId", websocket.New(h.streamJob))
}

// StreamMessage is a frame sent to job stream subscribers.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	messageStatus = "status"
	messageDone   = "done"
	messageError  = "error"
)

func (h *JobStreamHandler) streamJob(conn *websocket.Conn) {
	jobID := conn.Params("jobId")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the reader only notices the client closing; all writes happen below
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Debug("job stream opened", zap.String("job_id", jobID))

	job, err := h.forms.WaitForJob(ctx, jobID, func(j *model.FormJob) {
		if werr := conn.WriteJSON(StreamMessage{Type: messageStatus, Data: j}); werr != nil {
			cancel()
		}
	})
	if ctx.Err() == context.Canceled {
		h.log.Debug("job stream closed by client", zap.String("job_id", jobID))
		return
	}
	if err != nil {
		status, body := errorBody(err)
		if status >= fiber.StatusInternalServerError {
			h.log.Warn("job stream failed", zap.String("job_id", jobID), zap.Error(err))
		}
		_ = conn.WriteJSON(StreamMessage{Type: messageError, Data: body})
		return
	}
	_ = conn.WriteJSON(StreamMessage{Type: messageDone, Data: job})
}

// ErrorResponse is the error payload of a stream frame.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
