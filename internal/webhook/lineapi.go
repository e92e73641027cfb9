package webhook

import (
	"context"
	"fmt"
	"io"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ymgch/hime-linebot-go/internal/bot"
)

// Messenger sends replies and leaves chats on the bot's behalf.
type Messenger interface {
	Reply(replyToken string, messages []messaging_api.MessageInterface) error
	Leave(source webhook.SourceInterface) error
}

// sdkMessenger backs Messenger with the LINE messaging API client.
type sdkMessenger struct {
	client *messaging_api.MessagingApiAPI
}

func (m *sdkMessenger) Reply(replyToken string, messages []messaging_api.MessageInterface) error {
	_, err := m.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	return err
}

func (m *sdkMessenger) Leave(source webhook.SourceInterface) error {
	switch s := source.(type) {
	case webhook.GroupSource:
		_, err := m.client.LeaveGroup(s.GroupId)
		return err
	case webhook.RoomSource:
		_, err := m.client.LeaveRoom(s.RoomId)
		return err
	default:
		// A one-to-one chat cannot be left
		return nil
	}
}

// ProfileResolver resolves display names through the LINE profile API.
// Satisfies bot.ProfileResolver.
type ProfileResolver struct {
	client *messaging_api.MessagingApiAPI
}

// NewProfileResolver creates a profile resolver for the given channel token.
func NewProfileResolver(channelToken string) (*ProfileResolver, error) {
	client, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	return &ProfileResolver{client: client}, nil
}

func (r *ProfileResolver) DisplayName(ctx context.Context, userID string) (string, error) {
	profile, err := r.client.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("get profile %s: %w", userID, err)
	}
	return profile.DisplayName, nil
}

var _ bot.ProfileResolver = (*ProfileResolver)(nil)

// BlobDownloader fetches message attachment content through the LINE blob
// API. Satisfies rules.BlobDownloader.
type BlobDownloader struct {
	client *messaging_api.MessagingApiBlobAPI
}

// NewBlobDownloader creates a blob downloader for the given channel token.
func NewBlobDownloader(channelToken string) (*BlobDownloader, error) {
	client, err := messaging_api.NewMessagingApiBlobAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create blob API client: %w", err)
	}
	return &BlobDownloader{client: client}, nil
}

func (d *BlobDownloader) Download(ctx context.Context, messageID string) (io.ReadCloser, error) {
	resp, err := d.client.GetMessageContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("get message content %s: %w", messageID, err)
	}
	return resp.Body, nil
}
