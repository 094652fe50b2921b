// internal/notify/webhook.go
// Generic webhook sink: performs an HTTP POST with a small JSON payload for
// every lifecycle event. Useful for wiring process() lifecycle into chat
// bots, incident managers or custom automation, grounded on the teacher's
// alert webhook sink.
//
// Each event's post and its retries (on any failure, with internal/util's
// dependency-free backoff) run sequentially in a goroutine that Notify
// spawns, so Notify itself does not block the phase engine.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/util"
)

// WebhookSink posts {event:"<event>", ...detail, ts:<unix>} JSON to URL.
type WebhookSink struct {
	URL        string
	Timeout    time.Duration // per-request timeout; default 5s
	MaxRetries int           // total attempts incl. first; default 5
}

// NewWebhookSink returns a sink with defaults.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{URL: url, Timeout: 5 * time.Second, MaxRetries: 5}
}

// Notify implements Sink. It spawns a goroutine so the caller returns
// immediately.
func (s *WebhookSink) Notify(event string, detail map[string]string) {
	if s.URL == "" {
		logging.Sugar().Warn("webhook sink configured without URL")
		return
	}
	go s.doPost(event, detail)
}

func (s *WebhookSink) doPost(event string, detail map[string]string) {
	payload := map[string]any{
		"event": event,
		"ts":    time.Now().Unix(),
	}
	for k, v := range detail {
		payload[k] = v
	}
	body, _ := json.Marshal(payload)

	client := &http.Client{Timeout: s.Timeout}
	bo := util.NewBackoff()

	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		cancel()
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return
		}
		if err == nil {
			_ = resp.Body.Close()
		}
		logging.Logger().Warn("webhook notify failed", zap.String("event", event), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == s.MaxRetries {
			break
		}
		time.Sleep(bo.Next())
	}
}
