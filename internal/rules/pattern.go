package rules

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/pattern"
	"github.com/ymgch/hime-linebot-go/internal/randutil"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// Object keys and category prefixes for the legacy pattern replies.
const (
	nekoImagePrefix = "image/neko/"
	micchiImageKey  = "image/micchi/micchi.jpg"
	kitadaImageKey  = "image/kitada/kitada.jpg"
)

const warningText = "そろそろ怒るよ"

// nekoReplies maps the cat alias tags to their themed reply text.
var nekoReplies = map[pattern.Tag]string{
	pattern.TagNekoKanji:    "Zzz...",
	pattern.TagNekoHiragana: "にゃー",
	pattern.TagNekoKatakana: "ニャー",
	pattern.TagNekoRomaji:   "nya-",
}

// PatternRule reproduces the legacy alias-table replies, with a small
// probabilistic chance of a generic warning instead of the themed reply.
type PatternRule struct {
	db            *storage.DB
	media         MediaStore
	log           *logger.Logger
	rng           randutil.Source
	warningChance float64
}

// NewPatternRule creates the legacy pattern-table rule.
func NewPatternRule(db *storage.DB, media MediaStore, log *logger.Logger, rng randutil.Source, warningChance float64) *PatternRule {
	return &PatternRule{
		db:            db,
		media:         media,
		log:           log.WithModule("rules.pattern"),
		rng:           rng,
		warningChance: warningChance,
	}
}

func (r *PatternRule) Name() string { return "pattern" }

func (r *PatternRule) Apply(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.TagMatch {
		return nil, false, nil
	}

	switch ev.Tag {
	case pattern.TagDog:
		return &bot.Outcome{
			Messages: []messaging_api.MessageInterface{lineutil.NewTextMessage(ev.RawText + "きらい")},
			Leave:    !bot.IsPersonalChat(ev.Source),
		}, true, nil

	case pattern.TagMicchi:
		return &bot.Outcome{
			Messages: []messaging_api.MessageInterface{
				imageMessage(r.media, micchiImageKey),
				lineutil.NewTextMessage("シャー"),
			},
			Leave: !bot.IsPersonalChat(ev.Source),
		}, true, nil

	case pattern.TagKitada:
		return &bot.Outcome{
			Messages: []messaging_api.MessageInterface{imageMessage(r.media, kitadaImageKey)},
		}, true, nil

	case pattern.TagTest:
		return r.applyTest()

	default:
		return r.applyNeko(ctx, ev.Tag)
	}
}

// applyNeko sends the themed cat reply plus one random image, or the
// warning message instead when the dice say so.
func (r *PatternRule) applyNeko(ctx context.Context, tag pattern.Tag) (*bot.Outcome, bool, error) {
	text, ok := nekoReplies[tag]
	if !ok {
		r.log.WithField("tag", string(tag)).Warnf("Pattern tag has no bound reply")
		return nil, false, nil
	}

	if r.rng.Float64() < r.warningChance {
		return textOutcome(warningText), true, nil
	}

	messages := []messaging_api.MessageInterface{lineutil.NewTextMessage(text)}
	img, err := randomImageMessage(ctx, r.db, r.media, r.log, nekoImagePrefix)
	if err != nil {
		return nil, false, err
	}
	if img != nil {
		messages = append(messages, img)
	}
	return &bot.Outcome{Messages: messages}, true, nil
}

// applyTest replies with the resolved URLs for a fixed object so the
// storage wiring can be checked from chat.
func (r *PatternRule) applyTest() (*bot.Outcome, bool, error) {
	return &bot.Outcome{
		Messages: []messaging_api.MessageInterface{
			lineutil.NewTextMessage("動いてるよ"),
			lineutil.NewTextMessage(r.media.PublicURL(kitadaImageKey)),
			lineutil.NewTextMessage(r.media.PublicURL(mediastore.ThumbKey(kitadaImageKey))),
		},
	}, true, nil
}
