package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackSink posts to an incoming webhook.
type SlackSink struct {
	webhookURL string
}

func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{webhookURL: webhookURL}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, msg Message) error {
	payload := &slack.WebhookMessage{
		Text: msg.Title + ": " + msg.Body,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Title, false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Body, false, false), nil, nil),
		}},
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, payload); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
