package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/config"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/consent"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/store"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/tasks"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
	twilioClient "github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

const serviceName = "sardaarji-whatsapp-webhook"

// Canned replies, bilingual per the restaurant's audience.
const (
	replyUnsubscribed = "❌ You’ve been unsubscribed from Sardaar Ji promotions. " +
		"Reply START to resubscribe. / " +
		"❌ Has sido dado de baja de Sardaar Ji. " +
		"Responde START para suscribirte de nuevo."
	replyResubscribed = "✅ Subscribed / ✅ Suscripción activada"
	replyDefault      = "🍛 Thanks for contacting Sardaar Ji Indian Cuisine Panama!"
)

type Handler struct {
	Config *config.Config
	Store  store.Store
	Runner *tasks.Runner

	validator *twilioClient.RequestValidator
}

func NewHandler(cfg *config.Config, st store.Store, runner *tasks.Runner) *Handler {
	h := &Handler{
		Config: cfg,
		Store:  st,
		Runner: runner,
	}
	if cfg.TwilioAuthToken != "" {
		v := twilioClient.NewRequestValidator(cfg.TwilioAuthToken)
		h.validator = &v
	}
	return h
}

// ValidateSignature rejects requests whose X-Twilio-Signature does not
// match the shared auth token. With no token configured every request is
// accepted (dev mode).
func (h *Handler) ValidateSignature(c *gin.Context) {
	if h.validator == nil {
		c.Next()
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	signature := c.GetHeader("X-Twilio-Signature")
	if !h.validator.Validate(requestURL(c), params, signature) {
		logger.Warn("rejected request with invalid signature",
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	c.Next()
}

// requestURL rebuilds the public URL Twilio signed. Behind a proxy the
// scheme comes from X-Forwarded-Proto.
func requestURL(c *gin.Context) string {
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		if c.Request.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

// HandleInbound classifies an inbound message and replies immediately with
// TwiML. Consent changes and the inbound log row are persisted by the
// background runner after the response is written.
func (h *Handler) HandleInbound(c *gin.Context) {
	from := consent.NormalizeFrom(c.PostForm("From"))
	rawBody := strings.TrimSpace(c.PostForm("Body"))
	sid := c.PostForm("MessageSid")
	body := strings.ToUpper(rawBody)

	intent := consent.Classify(body)

	var reply string
	switch intent {
	case consent.Unsubscribe:
		reply = replyUnsubscribed
	case consent.Resubscribe:
		reply = replyResubscribed
	default:
		reply = replyDefault
	}

	xml, err := twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: reply},
	})
	if err != nil {
		logger.Error("failed to render reply", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, xml)

	logger.Info("inbound message",
		zap.String("from", from),
		zap.String("sid", sid),
		zap.String("intent", intent.String()))

	h.Runner.Submit("log-inbound", func(ctx context.Context) error {
		return h.Store.LogInbound(ctx, from, rawBody, sid)
	})

	switch intent {
	case consent.Unsubscribe:
		h.Runner.Submit("record-unsubscribe", func(ctx context.Context) error {
			return h.Store.RecordUnsubscribe(ctx, from)
		})
	case consent.Resubscribe:
		h.Runner.Submit("record-resubscribe", func(ctx context.Context) error {
			return h.Store.RecordResubscribe(ctx, from)
		})
	}
}

// HandleStatus records a delivery-status callback. The response is always
// OK once the signature passes; Twilio retries non-200 callbacks and the
// retries would duplicate log rows.
func (h *Handler) HandleStatus(c *gin.Context) {
	sid := c.PostForm("MessageSid")
	if sid == "" {
		sid = c.PostForm("SmsSid")
	}
	status := c.PostForm("MessageStatus")
	errMsg := strings.TrimSpace(strings.TrimSpace(c.PostForm("ErrorCode")) + " " + strings.TrimSpace(c.PostForm("ErrorMessage")))

	h.Runner.Submit("record-status", func(ctx context.Context) error {
		return h.Store.RecordDeliveryStatus(ctx, sid, status, errMsg)
	})

	c.String(http.StatusOK, "OK")
}

// HandleHealth is the probe endpoint.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
