package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

// WebhookSink delivers digest documents to a Discord channel webhook,
// splitting them into messages that respect Discord's size limit.
type WebhookSink struct {
	webhookURL string
	chunkSize  int
	pause      time.Duration
	client     *http.Client
}

var _ ports.Sink = (*WebhookSink)(nil)

// NewWebhookSink registers the webhook URL and per-message size limit.
func NewWebhookSink(webhookURL string, chunkSize int) *WebhookSink {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &WebhookSink{
		webhookURL: webhookURL,
		chunkSize:  chunkSize,
		pause:      500 * time.Millisecond,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver posts the document chunk by chunk, pausing between messages to
// stay under the webhook rate limit.
func (s *WebhookSink) Deliver(ctx context.Context, document string) error {
	if s.webhookURL == "" {
		return fmt.Errorf("discord webhook misconfigured")
	}

	chunks := domain.SplitDocument(document, s.chunkSize)
	for i, chunk := range chunks {
		if err := s.post(ctx, chunk); err != nil {
			return fmt.Errorf("post chunk %d/%d: %w", i+1, len(chunks), err)
		}

		if i < len(chunks)-1 {
			select {
			case <-time.After(s.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

func (s *WebhookSink) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
