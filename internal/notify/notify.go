// Package notify delivers run results to user-configured webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/internal/config"
	"github.com/xkilldash9x/rewards-cli/internal/retry"
)

const (
	sendTimeout  = 10 * time.Second
	sendAttempts = 3
)

type message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier posts messages to every configured webhook URL. Delivery is best
// effort: failures are logged, never returned, so a broken webhook cannot
// abort a run.
type Notifier struct {
	logger *zap.Logger
	client *http.Client
	cfg    config.NotifyConfig
}

func NewNotifier(logger *zap.Logger, cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		logger: logger.Named("notify"),
		client: &http.Client{Timeout: sendTimeout},
		cfg:    cfg,
	}
}

// Send posts the message to each webhook in turn.
func (n *Notifier) Send(ctx context.Context, title, body string) {
	if !n.cfg.Enabled || len(n.cfg.URLs) == 0 {
		return
	}

	payload, err := json.Marshal(message{Title: title, Body: body})
	if err != nil {
		n.logger.Error("Encoding notification", zap.Error(err))
		return
	}

	for _, url := range n.cfg.URLs {
		if err := n.post(ctx, url, payload); err != nil {
			n.logger.Warn("Webhook delivery failed", zap.String("url", url), zap.Error(err))
		}
	}
}

func (n *Notifier) post(ctx context.Context, url string, payload []byte) error {
	_, err := retry.Do(ctx, sendAttempts, time.Second, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned %s", resp.Status)
		}
		return struct{}{}, nil
	})
	return err
}
