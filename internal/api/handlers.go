package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-agent/internal/chat"
	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/models"
	"interview-agent/internal/strategy"
)

const (
	headerUserID    = "X-User-ID"
	headerUserClass = "X-User-Class"

	ctxUserID    = "userID"
	ctxUserClass = "userClass"
)

// identity resolves the authenticated caller from the gateway-injected
// headers. Authentication itself happens upstream; a missing identity
// means the request bypassed the gateway.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			writeError(c, cerrors.NewUnauthorizedError())
			c.Abort()
			return
		}
		class := models.UserClass(c.GetHeader(headerUserClass))
		if class != models.UserClassRegular {
			class = models.UserClassGuest
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserClass, class)
		c.Next()
	}
}

type Handler struct {
	service *chat.Service
	logger  logger.Logger
}

func NewHandler(service *chat.Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.With(map[string]interface{}{"component": "api"}),
	}
}

type turnPayload struct {
	ID      string `json:"id" binding:"required"`
	Message struct {
		ID    string        `json:"id"`
		Parts []models.Part `json:"parts"`
	} `json:"message"`
	SelectedChatModel      string            `json:"selectedChatModel"`
	SelectedVisibilityType models.Visibility `json:"selectedVisibilityType"`
	Hints                  struct {
		City      string `json:"city"`
		Country   string `json:"country"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"hints"`
}

// PostChat runs one turn and streams the merged event sequence back as
// server-sent events.
func (h *Handler) PostChat(c *gin.Context) {
	var payload turnPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, cerrors.NewBadRequestError(err.Error()))
		return
	}

	req := chat.TurnRequest{
		ChatID:     payload.ID,
		UserID:     c.GetString(ctxUserID),
		UserClass:  c.MustGet(ctxUserClass).(models.UserClass),
		Visibility: payload.SelectedVisibilityType,
		ModelAlias: payload.SelectedChatModel,
		Message: models.Message{
			ID:    payload.Message.ID,
			Parts: payload.Message.Parts,
		},
		Hints: strategy.RequestHints{
			City:      payload.Hints.City,
			Country:   payload.Hints.Country,
			Latitude:  payload.Hints.Latitude,
			Longitude: payload.Hints.Longitude,
		},
	}

	events, err := h.service.ProcessTurn(c.Request.Context(), req)
	if err != nil {
		writeError(c, cerrors.AsChatError(err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("event serialization failed", map[string]interface{}{"error": err.Error()})
			return true
		}
		c.SSEvent("", json.RawMessage(data))
		return true
	})
}

// GetUsage reports the caller's rolling API-call quota.
func (h *Handler) GetUsage(c *gin.Context) {
	usage, err := h.service.Usage(c.Request.Context(),
		c.GetString(ctxUserID), c.MustGet(ctxUserClass).(models.UserClass))
	if err != nil {
		writeError(c, cerrors.AsChatError(err))
		return
	}
	c.JSON(http.StatusOK, usage)
}

// DeleteChat removes a chat owned by the caller.
func (h *Handler) DeleteChat(c *gin.Context) {
	chatID := c.Query("id")
	if chatID == "" {
		writeError(c, cerrors.NewBadRequestError("id query parameter is required"))
		return
	}
	if err := h.service.DeleteChat(c.Request.Context(), chatID, c.GetString(ctxUserID)); err != nil {
		writeError(c, cerrors.AsChatError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": chatID})
}

func writeError(c *gin.Context, err *cerrors.ChatError) {
	c.JSON(err.HTTPStatus(), gin.H{
		"code":    err.Code,
		"message": err.UserMessage(),
	})
}
