// Package bot provides the rule pipeline and per-event orchestration for
// the LINE bot. Each reply branch implements the Rule interface; the
// Pipeline evaluates rules in a fixed priority order and stops at the
// first one that produces an outcome.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/pattern"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// Event carries everything a rule needs to decide on one inbound text
// message: the raw and normalized text, the sender, the settings snapshot,
// and the pre-resolved intent/entity matches.
type Event struct {
	ReplyToken string
	Source     webhook.SourceInterface
	UserID     string
	ChatID     string

	// RawText is the message as received, Text the normalized form.
	RawText string
	Text    string

	// Profile is the sender's display name, "Unknown" when lookup failed.
	Profile string

	Settings storage.Settings

	// Entity holds the exact-mode entity match, PartialEntity the
	// substring-mode match used for intent argument resolution.
	Entity        storage.EntityMatch
	PartialEntity storage.EntityMatch

	// Intent holds the substring-mode intent match.
	Intent storage.IntentMatch

	// Tag is the legacy pattern table lookup result.
	Tag      pattern.Tag
	TagMatch bool
}

// Outcome is what a rule produced: the reply messages and whether the bot
// should leave the group or room afterwards.
type Outcome struct {
	Messages []messaging_api.MessageInterface
	Leave    bool
}

// Rule is one reply branch. Apply returns (outcome, true) when the rule
// handled the event; (nil, false) lets the pipeline fall through to the
// next rule.
type Rule interface {
	Name() string
	Apply(ctx context.Context, ev *Event) (*Outcome, bool, error)
}

// Pipeline evaluates rules in registration order, first match wins.
type Pipeline struct {
	rules []Rule
	log   *logger.Logger
}

// NewPipeline creates a pipeline over the given rules.
func NewPipeline(log *logger.Logger, rules ...Rule) *Pipeline {
	return &Pipeline{
		rules: rules,
		log:   log.WithModule("pipeline"),
	}
}

// Evaluate runs the event through the rules. Returns nil when no rule
// produced an outcome.
func (p *Pipeline) Evaluate(ctx context.Context, ev *Event) (*Outcome, error) {
	for _, rule := range p.rules {
		outcome, handled, err := rule.Apply(ctx, ev)
		if err != nil {
			return nil, err
		}
		if handled {
			p.log.WithField("rule", rule.Name()).Debugf("Rule handled event")
			return outcome, nil
		}
	}
	return nil, nil
}
