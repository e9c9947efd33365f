package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/consent"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/models"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/store"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/tasks"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageSender delivers an outbound message and returns the provider
// message SID. Satisfied by messaging.Sender.
type MessageSender interface {
	Send(to, body string) (string, error)
}

// AdminHandler serves the operator endpoints: consent/log listings and
// outbound sends. Sender is nil when Twilio REST credentials are not
// configured.
type AdminHandler struct {
	Store  store.Store
	Sender MessageSender
	Runner *tasks.Runner
}

func NewAdminHandler(st store.Store, sender MessageSender, runner *tasks.Runner) *AdminHandler {
	return &AdminHandler{
		Store:  st,
		Sender: sender,
		Runner: runner,
	}
}

func (h *AdminHandler) GetCustomers(c *gin.Context) {
	customers, err := h.Store.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if customers == nil {
		customers = []models.Customer{}
	}

	c.JSON(http.StatusOK, customers)
}

func (h *AdminHandler) GetMessages(c *gin.Context) {
	messages, err := h.Store.ListMessages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, messages)
}

type SendRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// SendMessage sends a WhatsApp message through the Twilio REST API and
// logs an outbound row. Its sid is what later status callbacks update.
func (h *AdminHandler) SendMessage(c *gin.Context) {
	if h.Sender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "outbound sending is not configured"})
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid, err := h.Sender.Send(req.To, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	phone := consent.NormalizeFrom(req.To)
	body := req.Body
	date := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	h.Runner.Submit("log-outbound", func(ctx context.Context) error {
		return h.Store.PutMessage(ctx, models.Message{
			SID:    sid,
			Date:   date,
			Phone:  phone,
			Type:   models.TypeOutbound,
			Body:   body,
			Status: "queued",
		})
	})

	logger.Info("outbound message sent", zap.String("to", phone), zap.String("sid", sid))
	c.JSON(http.StatusOK, gin.H{"status": "sent", "sid": sid})
}
