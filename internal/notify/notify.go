// Package notify implements the notification sink the engine emits
// level-up events to. The message layout is built by the chain
// package; notifiers only deliver text.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Notifier is the contract the chain engine sends formatted text to.
type Notifier interface {
	Send(text string) error
}

// WebhookNotifier posts {"text": "..."} to a configured URL.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *logrus.Logger
}

func NewWebhookNotifier(url string, logger *logrus.Logger) *WebhookNotifier {
	client := resty.New()
	client.SetTimeout(5 * time.Second)
	client.SetRetryCount(2)
	return &WebhookNotifier{client: client, url: url, logger: logger}
}

func (n *WebhookNotifier) Send(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := n.client.R().SetContext(ctx).SetBody(map[string]string{"text": text}).Post(n.url)
	if err != nil {
		n.logger.WithError(err).Error("failed to send webhook notification")
		return err
	}
	if resp.IsError() {
		n.logger.WithField("status", resp.StatusCode()).Error("webhook notification rejected")
	}
	return nil
}

// LogNotifier logs the message instead of sending it anywhere; the
// service wires it when no webhook URL is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(text string) error {
	n.logger.WithField("notification", text).Info("chain notification")
	return nil
}
