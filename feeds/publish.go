package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// NotifyHubs tells each WebSub hub that the feed at topic has new content.
// Hubs are flaky enough that each ping retries with exponential backoff.
func NotifyHubs(ctx context.Context, hubs []string, topic string) error {
	client := &http.Client{Timeout: 30 * time.Second}

	for _, hub := range hubs {
		hub := hub
		operation := func() error {
			return ping(ctx, client, hub, topic)
		}

		err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx))
		if err != nil {
			return fmt.Errorf("could not notify hub %s: %w", hub, err)
		}

		log.WithFields(log.Fields{
			"hub":   hub,
			"topic": topic,
		}).Info("Notified hub")
	}

	return nil
}

func ping(ctx context.Context, client *http.Client, hub string, topic string) error {
	form := url.Values{}
	form.Set("hub.mode", "publish")
	form.Set("hub.url", topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hub, strings.NewReader(form.Encode()))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Hubs answer 202 or 204 on success
	if resp.StatusCode >= 300 {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	return nil
}
