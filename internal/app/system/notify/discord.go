// internal/app/system/notify/discord.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	queueSize      = 32
	requestTimeout = 10 * time.Second
	deliverTimeout = 45 * time.Second
	maxRetries     = 4

	// Minimum spacing between webhook requests, independent of retries.
	minInterval = 2 * time.Second
)

// Discord announces group creation to a Discord webhook. Deliveries run on
// a single worker goroutine (one request in flight at a time), are
// rate-limited, and retried with exponential backoff honoring the
// Retry-After hint on 429. Failures are logged and swallowed; nothing here
// ever reaches the request that created the group.
type Discord struct {
	webhookURL string
	siteURL    string
	client     *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger

	queue chan models.Group
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewDiscord constructs the announcer. An empty webhookURL disables it
// (Announce becomes a no-op), matching a deployment without the webhook
// configured.
func NewDiscord(webhookURL, siteURL string, logger *zap.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		siteURL:    strings.TrimRight(siteURL, "/"),
		client:     &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		log:        logger,
		queue:      make(chan models.Group, queueSize),
		done:       make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Discord) Start() {
	if d.webhookURL == "" {
		d.log.Warn("discord webhook URL not configured, group notifications disabled")
		return
	}
	d.wg.Add(1)
	go d.run()
	d.log.Info("discord notifier started")
}

// Stop drains nothing: pending notifications are abandoned (best-effort).
func (d *Discord) Stop() {
	if d.webhookURL == "" {
		return
	}
	close(d.done)
	d.wg.Wait()
	d.log.Info("discord notifier stopped")
}

// Announce queues a group-created notification and returns immediately.
// A full queue drops the notification.
func (d *Discord) Announce(g models.Group) {
	if d.webhookURL == "" {
		return
	}
	select {
	case d.queue <- g:
	default:
		d.log.Warn("notification queue full, dropping announcement",
			zap.String("group", g.Name))
	}
}

func (d *Discord) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case g := <-d.queue:
			d.deliver(g)
		}
	}
}

func (d *Discord) deliver(g models.Group) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	body, err := json.Marshal(webhookPayload{Embeds: []embed{buildEmbed(g, d.siteURL)}})
	if err != nil {
		d.log.Error("marshal webhook payload failed", zap.Error(err))
		return
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("webhook rate limited, waited %s", wait)
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook server error: %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("webhook rejected request: %s", resp.Status))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		d.log.Error("group notification failed",
			zap.String("group", g.Name), zap.Error(err))
	}
}

// retryAfter reads the server's Retry-After hint in seconds, defaulting to
// one second and capping at thirty.
func retryAfter(resp *http.Response) time.Duration {
	const (
		fallback = 1 * time.Second
		maxWait  = 30 * time.Second
	)
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return fallback
	}
	wait := time.Duration(secs * float64(time.Second))
	if wait > maxWait {
		return maxWait
	}
	return wait
}
