package rules

import (
	"context"
	"errors"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// Entity names with dedicated branches. All other entities get the default
// canned-replies-plus-image treatment.
const (
	carouselEntity      = "tabelog"
	listingEntityPrefix = "tabelog_"
)

// leaveEntities reply and then make the bot leave group and room chats.
var leaveEntities = map[string]bool{
	"dog": true,
}

// EntityRule handles exact entity matches: leave triggers, the listing
// carousel, per-entity flex cards, and canned replies with a random image.
type EntityRule struct {
	db          *storage.DB
	media       MediaStore
	log         *logger.Logger
	maxListings int
}

// NewEntityRule creates the exact-entity-match rule.
func NewEntityRule(db *storage.DB, media MediaStore, log *logger.Logger, maxListings int) *EntityRule {
	return &EntityRule{
		db:          db,
		media:       media,
		log:         log.WithModule("rules.entity"),
		maxListings: maxListings,
	}
}

func (r *EntityRule) Name() string { return "entity" }

func (r *EntityRule) Apply(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Entity.Matched {
		return nil, false, nil
	}

	switch {
	case leaveEntities[ev.Entity.Name]:
		return r.applyLeave(ctx, ev)
	case ev.Entity.Name == carouselEntity:
		return r.applyCarousel(ctx)
	case strings.HasPrefix(ev.Entity.Name, listingEntityPrefix):
		return r.applyListingCard(ctx, ev)
	default:
		return r.applyCanned(ctx, ev)
	}
}

func (r *EntityRule) applyLeave(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	messages, err := r.cannedMessages(ctx, ev)
	if err != nil {
		return nil, false, err
	}
	return &bot.Outcome{
		Messages: messages,
		// Leaving only makes sense in group and room chats
		Leave: !bot.IsPersonalChat(ev.Source),
	}, true, nil
}

func (r *EntityRule) applyCarousel(ctx context.Context) (*bot.Outcome, bool, error) {
	listings, err := r.db.RandomListings(ctx, r.maxListings)
	if err != nil {
		return nil, false, err
	}
	if len(listings) == 0 {
		// Nothing to show yet, let the next branch try
		return nil, false, nil
	}

	msg := lineutil.ListingCarousel(listings, func(key string) string {
		return r.media.PublicURL(key)
	})
	return &bot.Outcome{Messages: []messaging_api.MessageInterface{msg}}, true, nil
}

func (r *EntityRule) applyListingCard(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	listing, err := r.db.ListingByEntity(ctx, ev.Entity.Name)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	imageURL := ""
	if listing.ImageKey != "" {
		imageURL = r.media.PublicURL(listing.ImageKey)
	}
	msg := lineutil.ListingFlexMessage(listing, imageURL)
	return &bot.Outcome{Messages: []messaging_api.MessageInterface{msg}}, true, nil
}

func (r *EntityRule) applyCanned(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	messages, err := r.cannedMessages(ctx, ev)
	if err != nil {
		return nil, false, err
	}

	category, err := r.db.EntityCategory(ctx, ev.Entity.ID)
	if err != nil {
		return nil, false, err
	}
	if category != "" {
		img, err := randomImageMessage(ctx, r.db, r.media, r.log, category)
		if err != nil {
			return nil, false, err
		}
		if img != nil {
			messages = append(messages, img)
		}
	}

	if len(messages) == 0 {
		return nil, false, nil
	}
	return &bot.Outcome{Messages: messages}, true, nil
}

func (r *EntityRule) cannedMessages(ctx context.Context, ev *bot.Event) ([]messaging_api.MessageInterface, error) {
	replies, err := r.db.EntityReplies(ctx, ev.Entity.ID)
	if err != nil {
		return nil, err
	}

	messages := make([]messaging_api.MessageInterface, 0, len(replies))
	for _, text := range replies {
		messages = append(messages, lineutil.NewTextMessage(text))
	}
	return messages, nil
}
