package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// Intent names recognized by the rule. Keywords live in the intents table,
// these names bind them to behavior.
const (
	intentEnableAccess    = "enable_access_management"
	intentDisableAccess   = "disable_access_management"
	intentSwitchUpload    = "switch_upload"
	intentShowSettings    = "show_settings"
	intentRegenThumbnails = "regenerate_thumbnails"
	intentPruneThumbnails = "prune_thumbnails"
	intentRefreshListings = "refresh_listings"
)

// listingSubmissionCategory switches inbound text handling to listing URL
// ingestion.
const listingSubmissionCategory = "tabelog/"

// IntentRule handles admin toggles, the upload-target switch, settings
// queries, and maintenance triggers.
type IntentRule struct {
	db    *storage.DB
	maint *Maintenance
	log   *logger.Logger
}

// NewIntentRule creates the intent-match rule.
func NewIntentRule(db *storage.DB, maint *Maintenance, log *logger.Logger) *IntentRule {
	return &IntentRule{
		db:    db,
		maint: maint,
		log:   log.WithModule("rules.intent"),
	}
}

func (r *IntentRule) Name() string { return "intent" }

func (r *IntentRule) Apply(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Intent.Matched {
		return nil, false, nil
	}
	// Events with an exact entity match belong to the entity rule
	if ev.Entity.Matched {
		return nil, false, nil
	}

	switch ev.Intent.Name {
	case intentEnableAccess:
		return r.toggleAccess(ctx, ev, true)
	case intentDisableAccess:
		return r.toggleAccess(ctx, ev, false)
	case intentSwitchUpload:
		return r.switchUpload(ctx, ev)
	case intentShowSettings:
		return r.showSettings(ev)
	case intentRegenThumbnails:
		return r.regenerateThumbnails(ctx, ev)
	case intentPruneThumbnails:
		return r.pruneThumbnails(ctx, ev)
	case intentRefreshListings:
		return r.refreshListings(ctx, ev)
	default:
		r.log.WithField("intent", ev.Intent.Name).Warnf("Intent has no bound behavior")
		return nil, false, nil
	}
}

func (r *IntentRule) toggleAccess(ctx context.Context, ev *bot.Event, enable bool) (*bot.Outcome, bool, error) {
	if !ev.Settings.IsAdmin(ev.UserID) {
		// Non-admins fall through silently, no admin-only reply leaks
		return nil, false, nil
	}

	if _, err := r.db.SetAccessManagement(ctx, enable); err != nil {
		return nil, false, err
	}

	text := "アクセス管理をオフにしたよ"
	if enable {
		text = "アクセス管理をオンにしたよ"
	}
	return textOutcome(text), true, nil
}

func (r *IntentRule) switchUpload(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Settings.AllowAccess(ev.UserID) {
		return nil, false, nil
	}

	category, err := r.resolveUploadTarget(ctx, ev)
	if err != nil {
		return nil, false, err
	}

	if _, err := r.db.SetUploadCategory(ctx, category); err != nil {
		return nil, false, err
	}

	if category == "" {
		return textOutcome("アップロードをやめたよ"), true, nil
	}
	return textOutcome(fmt.Sprintf("アップロード先を %s にしたよ", category)), true, nil
}

// resolveUploadTarget picks the new upload category from the entity that
// qualifies the intent. The entity counts only when its keyword appears
// before the intent keyword in the message.
func (r *IntentRule) resolveUploadTarget(ctx context.Context, ev *bot.Event) (string, error) {
	arg := ev.PartialEntity
	if !arg.Matched || arg.Position == 0 || arg.Position >= ev.Intent.Position {
		// No qualifying entity disables uploading
		return "", nil
	}

	if arg.Name == carouselEntity || strings.HasPrefix(arg.Name, listingEntityPrefix) {
		return listingSubmissionCategory, nil
	}

	category, err := r.db.EntityCategory(ctx, arg.ID)
	if err != nil {
		return "", err
	}
	return category, nil
}

func (r *IntentRule) showSettings(ev *bot.Event) (*bot.Outcome, bool, error) {
	s := ev.Settings

	access := "オフ"
	if s.AccessManagement {
		access = "オン"
	}
	upload := s.UploadCategory
	if upload == "" {
		upload = "なし"
	}

	text := fmt.Sprintf("アクセス管理: %s\nアップロード先: %s\n管理者: %d人",
		access, upload, len(s.AdminUserIDs))
	return textOutcome(text), true, nil
}

func (r *IntentRule) regenerateThumbnails(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Settings.IsAdmin(ev.UserID) {
		return nil, false, nil
	}

	count, err := r.maint.RegenerateThumbnails(ctx)
	if err != nil {
		return nil, false, err
	}
	return textOutcome(fmt.Sprintf("サムネイルを %d 件作り直したよ", count)), true, nil
}

func (r *IntentRule) pruneThumbnails(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Settings.IsAdmin(ev.UserID) {
		return nil, false, nil
	}

	count, err := r.maint.PruneThumbnails(ctx)
	if err != nil {
		return nil, false, err
	}
	return textOutcome(fmt.Sprintf("いらないサムネイルを %d 件消したよ", count)), true, nil
}

func (r *IntentRule) refreshListings(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !ev.Settings.IsAdmin(ev.UserID) {
		return nil, false, nil
	}

	count, err := r.maint.RefreshListings(ctx)
	if err != nil {
		return nil, false, err
	}
	return textOutcome(fmt.Sprintf("お店情報を %d 件更新したよ", count)), true, nil
}

func textOutcome(text string) *bot.Outcome {
	return &bot.Outcome{
		Messages: []messaging_api.MessageInterface{lineutil.NewTextMessage(text)},
	}
}
