// Package notify delivers user notifications after a dose is calculated.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/go-resty/resty/v2"
)

// Compile-time checks
var (
	_ interfaces.Notifier = Noop{}
	_ interfaces.Notifier = (*Webhook)(nil)
)

// DefaultIcon is shown next to calculator notifications
const DefaultIcon = "/icon.svg"

// DoseCalculated builds the notification sent for a computed dose
func DoseCalculated(dose, drugName string) interfaces.Notification {
	return interfaces.Notification{
		Title: "Dosage Calculated",
		Body:  fmt.Sprintf("%s for %s", dose, drugName),
		Icon:  DefaultIcon,
	}
}

// Noop drops every notification
type Noop struct{}

func (Noop) Notify(context.Context, interfaces.Notification) error { return nil }

// Webhook posts notifications as JSON to an HTTP endpoint
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook creates a webhook notifier for url
func NewWebhook(url string) *Webhook {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Webhook{client: client, url: url}
}

// Notify posts n to the webhook. Non-2xx responses are errors.
func (w *Webhook) Notify(ctx context.Context, n interfaces.Notification) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(n).
		Post(w.url)
	if err != nil {
		logging.Warn("Notification webhook call failed", "error", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}
	if resp.IsError() {
		logging.Warn("Notification webhook rejected notification", "status_code", resp.StatusCode())
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode())
	}
	return nil
}
