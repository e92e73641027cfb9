package bot

import (
	"context"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ymgch/hime-linebot-go/internal/config"
	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/pattern"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/textnorm"
)

// joinGreeting is sent whenever the bot is added to a conversation.
const joinGreeting = "ねこって言ってみ"

// UnknownProfile is the display name used when profile lookup fails.
const UnknownProfile = "Unknown"

// ProfileResolver looks up a user's display name.
type ProfileResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// ImageArchiver stores an inbound image attachment under the active upload
// category and returns the acknowledgement messages.
type ImageArchiver interface {
	Archive(ctx context.Context, messageID string, settings storage.Settings) ([]messaging_api.MessageInterface, error)
}

// Processor handles the core logic of processing LINE events: it
// normalizes the text, loads the settings snapshot, resolves matches once,
// and hands the populated event to the rule pipeline.
type Processor struct {
	db       *storage.DB
	pipeline *Pipeline
	profiles ProfileResolver
	archiver ImageArchiver
	log      *logger.Logger
	metrics  *metrics.Metrics

	maxMessagesPerReply int
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	DB        *storage.DB
	Pipeline  *Pipeline
	Profiles  ProfileResolver
	Archiver  ImageArchiver
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	BotConfig *config.BotConfig
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		db:                  cfg.DB,
		pipeline:            cfg.Pipeline,
		profiles:            cfg.Profiles,
		archiver:            cfg.Archiver,
		log:                 cfg.Logger.WithModule("processor"),
		metrics:             cfg.Metrics,
		maxMessagesPerReply: cfg.BotConfig.MaxMessagesPerReply,
	}
}

// ProcessText handles a text message event. Returns nil when no rule
// produced a reply.
func (p *Processor) ProcessText(ctx context.Context, event webhook.MessageEvent, content webhook.TextMessageContent) (*Outcome, error) {
	raw := content.Text
	if raw == "" {
		return nil, nil
	}

	userID := GetUserID(event.Source)
	ev := &Event{
		ReplyToken: event.ReplyToken,
		Source:     event.Source,
		UserID:     userID,
		ChatID:     GetChatID(event.Source),
		RawText:    raw,
		Text:       textnorm.Normalize(raw),
		Profile:    p.resolveProfile(ctx, userID),
	}

	settings, err := p.db.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	ev.Settings = *settings

	ev.Entity, err = p.db.ResolveEntity(ctx, ev.Text, true)
	if err != nil {
		return nil, err
	}
	ev.PartialEntity, err = p.db.ResolveEntity(ctx, ev.Text, false)
	if err != nil {
		return nil, err
	}
	ev.Intent, err = p.db.ResolveIntent(ctx, ev.Text, false)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordResolve("entity", ev.Entity.Matched || ev.PartialEntity.Matched)
	p.metrics.RecordResolve("intent", ev.Intent.Matched)

	ev.Tag, ev.TagMatch = pattern.Lookup(ev.Text)

	outcome, err := p.pipeline.Evaluate(ctx, ev)
	if err != nil {
		return nil, err
	}
	p.capMessages(outcome)
	return outcome, nil
}

// ProcessImage handles an image message event. The image is archived only
// when the active upload category targets image storage and the sender
// passes the access check; otherwise the event is silently ignored.
func (p *Processor) ProcessImage(ctx context.Context, event webhook.MessageEvent, content webhook.ImageMessageContent) (*Outcome, error) {
	settings, err := p.db.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(settings.UploadCategory, "image") {
		return nil, nil
	}
	if !settings.AllowAccess(GetUserID(event.Source)) {
		return nil, nil
	}

	messages, err := p.archiver.Archive(ctx, content.Id, *settings)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{Messages: messages}
	p.capMessages(outcome)
	return outcome, nil
}

// ProcessJoin handles the bot being added to a group or room.
func (p *Processor) ProcessJoin(ctx context.Context) (*Outcome, error) {
	return &Outcome{
		Messages: []messaging_api.MessageInterface{lineutil.NewTextMessage(joinGreeting)},
	}, nil
}

// resolveProfile absorbs lookup failures into the Unknown sentinel so one
// flaky profile call never aborts event processing.
func (p *Processor) resolveProfile(ctx context.Context, userID string) string {
	if userID == "" || p.profiles == nil {
		return UnknownProfile
	}
	name, err := p.profiles.DisplayName(ctx, userID)
	if err != nil || name == "" {
		p.log.WithError(err).WithField("user_id", userID).Debugf("Profile lookup failed")
		return UnknownProfile
	}
	return name
}

func (p *Processor) capMessages(outcome *Outcome) {
	if outcome == nil {
		return
	}
	if p.maxMessagesPerReply > 0 && len(outcome.Messages) > p.maxMessagesPerReply {
		outcome.Messages = outcome.Messages[:p.maxMessagesPerReply]
	}
}
