// Package webhook receives LINE webhook callbacks, verifies their
// signature, and dispatches each event to the bot processor.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	"github.com/ymgch/hime-linebot-go/internal/config"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
)

// Handler handles LINE webhook callbacks.
type Handler struct {
	channelSecret string
	messenger     Messenger
	metrics       *metrics.Metrics
	logger        *logger.Logger
	processor     *bot.Processor

	webhookTimeout      time.Duration
	maxEventsPerWebhook int
	minReplyTokenLength int
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Processor     *bot.Processor
}

// NewHandler creates a new webhook handler backed by the LINE messaging API.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	return &Handler{
		channelSecret:       cfg.ChannelSecret,
		messenger:           &sdkMessenger{client: client},
		metrics:             cfg.Metrics,
		logger:              cfg.Logger.WithModule("webhook"),
		processor:           cfg.Processor,
		webhookTimeout:      cfg.BotConfig.WebhookTimeout,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
	}, nil
}

// Handle is the gin handler for the webhook endpoint. Events are processed
// start-to-finish before the callback is acknowledged.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warnf("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Errorf("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	events := cb.Events
	if len(events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warnf("Too many events in webhook batch; truncating")
		events = events[:h.maxEventsPerWebhook]
	}

	for _, event := range events {
		h.processEvent(c.Request.Context(), event)
	}

	c.String(http.StatusOK, "OK")
}

// processEvent runs one webhook event through the processor and sends the
// reply, if any. Processing failures are logged, never surfaced to LINE.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	if h.webhookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.webhookTimeout)
		defer cancel()
	}

	start := time.Now()
	var outcome *bot.Outcome
	var eventType string
	var err error

	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		outcome, err = h.processMessage(ctx, e)
	case webhook.FollowEvent:
		eventType = "follow"
		outcome, err = h.processor.ProcessJoin(ctx)
	case webhook.JoinEvent:
		eventType = "join"
		outcome, err = h.processor.ProcessJoin(ctx)
	default:
		h.logger.WithField("event_type", fmt.Sprintf("%T", e)).Debugf("Unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		h.logger.WithError(err).WithField("event_type", eventType).Errorf("Failed to handle event")
	}
	h.metrics.RecordWebhookEvent(eventType, status, time.Since(start).Seconds())

	if err != nil || outcome == nil {
		return
	}

	if len(outcome.Messages) > 0 {
		h.reply(event, outcome.Messages)
	}
	if outcome.Leave {
		h.leave(event)
	}
}

func (h *Handler) processMessage(ctx context.Context, event webhook.MessageEvent) (*bot.Outcome, error) {
	switch content := event.Message.(type) {
	case webhook.TextMessageContent:
		return h.processor.ProcessText(ctx, event, content)
	case webhook.ImageMessageContent:
		return h.processor.ProcessImage(ctx, event, content)
	default:
		return nil, nil
	}
}

func (h *Handler) reply(event webhook.EventInterface, messages []messaging_api.MessageInterface) {
	replyToken := getReplyToken(event)
	if replyToken == "" {
		h.logger.Debugf("Empty reply token, skipping reply")
		return
	}
	if len(replyToken) < h.minReplyTokenLength {
		h.logger.WithField("token_length", len(replyToken)).Debugf("Invalid reply token format")
		return
	}

	if err := h.messenger.Reply(replyToken, messages); err != nil {
		h.logger.WithError(err).Errorf("Failed to send reply")
		h.metrics.RecordReply("error")
		return
	}
	h.metrics.RecordReply("success")
}

func (h *Handler) leave(event webhook.EventInterface) {
	source := getSource(event)
	if source == nil {
		return
	}
	if err := h.messenger.Leave(source); err != nil {
		h.logger.WithError(err).Warnf("Failed to leave chat")
	}
}

func getReplyToken(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.ReplyToken
	case webhook.FollowEvent:
		return e.ReplyToken
	case webhook.JoinEvent:
		return e.ReplyToken
	default:
		return ""
	}
}

func getSource(event webhook.EventInterface) webhook.SourceInterface {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.Source
	case webhook.FollowEvent:
		return e.Source
	case webhook.JoinEvent:
		return e.Source
	default:
		return nil
	}
}
