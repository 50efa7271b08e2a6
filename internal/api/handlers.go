package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/chat"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/middleware"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/version"
)

type Extractor interface {
	Extract(ctx context.Context, rawURL string, method fetch.Method) extract.Result
	CachedCount() int
}

type ChatService interface {
	HandleTurn(ctx context.Context, t chat.Turn) chat.Reply
	ConversationCount() int
	IntentCount() int
}

type Handlers struct {
	extractor    Extractor
	chat         ChatService
	instructions chat.InstructionStore
	logger       logging.Logger
	now          func() time.Time
}

func NewHandlers(extractor Extractor, chatService ChatService, instructions chat.InstructionStore, logger logging.Logger) *Handlers {
	return &Handlers{
		extractor:    extractor,
		chat:         chatService,
		instructions: instructions,
		logger:       logger,
		now:          time.Now,
	}
}

func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/extract", h.Extract)
	r.POST("/store-instructions", h.StoreInstructions)
	r.POST("/chat", h.Chat)
	r.GET("/status", h.Status)
}

func (h *Handlers) timestamp() string {
	return h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func (h *Handlers) Extract(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		fail(c, http.StatusBadRequest, "URL é obrigatória")
		return
	}
	method, err := fetch.ParseMethod(c.DefaultQuery("method", "auto"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Método de extração inválido")
		return
	}

	middleware.GetContextLogger(c, h.logger).WithFields(logging.Fields{
		"url":               rawURL,
		"extraction_method": method.String(),
	}).Info("Extraction requested")

	data := h.extractor.Extract(c.Request.Context(), rawURL, method)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": h.timestamp(),
	})
}

type storeInstructionsRequest struct {
	Instructions string `json:"instructions"`
}

func (h *Handlers) StoreInstructions(c *gin.Context) {
	var req storeInstructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Instructions) == "" {
		fail(c, http.StatusBadRequest, "Instruções são obrigatórias e devem ser uma string")
		return
	}

	id, err := h.instructions.Store(c.Request.Context(), strings.TrimSpace(req.Instructions))
	if err != nil {
		middleware.GetContextLogger(c, h.logger).WithError(err).Error("Failed to store instructions")
		fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	middleware.GetContextLogger(c, h.logger).WithField("instructions_id", id).Info("Instructions stored")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      id,
		"message": "Instruções armazenadas com sucesso",
	})
}

type chatRequest struct {
	Message        string `json:"message"`
	URL            string `json:"url"`
	ConversationID string `json:"conversationId"`
	InstructionsID string `json:"instructionsId"`
	AssistantName  string `json:"assistantName"`
}

func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Message == "" {
		fail(c, http.StatusBadRequest, "Mensagem é obrigatória")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = "default"
	}

	reply := h.chat.HandleTurn(c.Request.Context(), chat.Turn{
		Message:        req.Message,
		URL:            req.URL,
		ConversationID: req.ConversationID,
		InstructionsID: req.InstructionsID,
		AssistantName:  req.AssistantName,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"response":       reply.Response,
		"intent":         reply.Intent,
		"confidence":     reply.Confidence,
		"conversationId": req.ConversationID,
		"timestamp":      h.timestamp(),
	})
}

func (h *Handlers) Status(c *gin.Context) {
	instructions, err := h.instructions.Len(c.Request.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		middleware.GetContextLogger(c, h.logger).WithError(err).Warn("Could not count instructions")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"version":   version.Version,
		"timestamp": h.timestamp(),
		"caches": gin.H{
			"data":          h.extractor.CachedCount(),
			"conversations": h.chat.ConversationCount(),
			"intents":       h.chat.IntentCount(),
			"instructions":  instructions,
		},
	})
}
