// Package notify delivers alarm and error notifications to the
// configured channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"coinwatch/internal/config"
	"coinwatch/internal/models"
	"coinwatch/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendAlarm(ctx context.Context, alarm models.Alarm, quote models.Quote) error
	SendError(ctx context.Context, err error, context string) error
}

// NotificationChannel defines the interface for a notification channel.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Direction models.Condition
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationAlarm NotificationType = "alarm"
	NotificationError NotificationType = "error"
	NotificationInfo  NotificationType = "info"
)

// NotificationLevel represents the notification level filter.
type NotificationLevel string

const (
	LevelAll        NotificationLevel = "all"
	LevelAlarmsOnly NotificationLevel = "alarms_only"
	LevelErrorsOnly NotificationLevel = "errors_only"
)

// MultiNotifier sends notifications to multiple channels.
type MultiNotifier struct {
	channels   []NotificationChannel
	level      NotificationLevel
	timeFormat string
	mu         sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier with the channels enabled in
// the configuration. The UI settings control channel colors and the
// timestamp format in notification messages.
func NewMultiNotifier(cfg *config.NotificationConfig, ui config.UIConfig) *MultiNotifier {
	mn := &MultiNotifier{
		channels:   make([]NotificationChannel, 0),
		level:      NotificationLevel(cfg.Level),
		timeFormat: ui.TimeFormat,
	}

	if mn.level == "" {
		mn.level = LevelAll
	}
	if mn.timeFormat == "" {
		mn.timeFormat = "15:04:05"
	}

	if cfg.Terminal {
		tn := NewTerminalNotifier(nil)
		tn.SetColorEnabled(ui.ColorEnabled)
		mn.channels = append(mn.channels, tn)
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}

	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch NotificationChannel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// shouldSend checks if a notification passes the level filter.
func (mn *MultiNotifier) shouldSend(notifType NotificationType) bool {
	switch mn.level {
	case LevelAlarmsOnly:
		return notifType == NotificationAlarm
	case LevelErrorsOnly:
		return notifType == NotificationError
	default:
		return true
	}
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if !mn.shouldSend(n.Type) {
		return nil
	}

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendAlarm sends a triggered-alarm notification.
func (mn *MultiNotifier) SendAlarm(ctx context.Context, alarm models.Alarm, quote models.Quote) error {
	var emoji string
	switch alarm.Condition {
	case models.ConditionAbove:
		emoji = "📈"
	case models.ConditionBelow:
		emoji = "📉"
	default:
		emoji = "⚠️"
	}

	triggeredAt := time.Now()
	if alarm.TriggeredAt != nil {
		triggeredAt = *alarm.TriggeredAt
	}

	title := fmt.Sprintf("%s Alarm Triggered: %s", emoji, alarm.AssetName)
	message := fmt.Sprintf(
		"Asset: %s (%s)\nCondition: price %s $%s\nCurrent Price: $%s\nTriggered at: %s",
		alarm.AssetName,
		alarm.AssetSymbol,
		alarm.Condition,
		utils.FormatPrice(alarm.TargetPrice),
		utils.FormatPrice(quote.PriceUSD),
		triggeredAt.Format(mn.timeFormat),
	)

	return mn.Send(ctx, Notification{
		Type:      NotificationAlarm,
		Title:     title,
		Message:   message,
		Direction: alarm.Condition,
		Data: map[string]interface{}{
			"alarm_id":      alarm.ID,
			"asset_id":      alarm.AssetID,
			"symbol":        alarm.AssetSymbol,
			"condition":     string(alarm.Condition),
			"target_price":  alarm.TargetPrice.String(),
			"current_price": quote.PriceUSD.String(),
		},
	})
}

// SendError sends an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	title := "❌ Error Occurred"
	message := fmt.Sprintf("Context: %s\nError: %v\nTime: %s",
		errContext, err, time.Now().Format(mn.timeFormat))

	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"context": errContext,
			"error":   err.Error(),
		},
	})
}

// WebhookNotifier sends notifications via HTTP webhook.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

// Send sends a notification via webhook.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Coinwatch/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NoOpNotifier is a notifier that does nothing (for testing or disabled
// notifications).
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing.
func (n *NoOpNotifier) Send(ctx context.Context, notif Notification) error {
	return nil
}

// SendAlarm does nothing.
func (n *NoOpNotifier) SendAlarm(ctx context.Context, alarm models.Alarm, quote models.Quote) error {
	return nil
}

// SendError does nothing.
func (n *NoOpNotifier) SendError(ctx context.Context, err error, context string) error {
	return nil
}
