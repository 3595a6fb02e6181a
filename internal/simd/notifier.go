package simd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/config"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/utils"
)

// SecretHeader carries the configured callback secret
const SecretHeader = "X-Photosim-Callback-Secret"

var (
	ErrInvalidURL       = errors.New("invalid callback URL")
	ErrMetadataEndpoint = errors.New("callback URL targets a cloud metadata endpoint")
	ErrInternalHost     = errors.New("callback URL targets an internal address")
)

var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata":                 true,
	"fd00:ec2::254":            true,
}

// NotificationPayload is the JSON body posted to the callback URL
type NotificationPayload struct {
	RunID           string         `json:"run_id"`
	Kind            models.JobKind `json:"kind"`
	Status          string         `json:"status"`
	Dir             string         `json:"dir,omitempty"`
	Report          string         `json:"report,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Error           string         `json:"error,omitempty"`
	Counts          map[string]int `json:"counts,omitempty"`
	CreatedAtUnixMs int64          `json:"created_at_unix_ms"`
	EndedAtUnixMs   int64          `json:"ended_at_unix_ms,omitempty"`
	Timestamp       int64          `json:"timestamp"` // when the notification was sent
}

// NewPayload builds the payload for a finished job
func NewPayload(job *models.Job, counts map[models.RunStatus]int) NotificationPayload {
	p := NotificationPayload{
		RunID:           job.ID,
		Kind:            job.Kind,
		Status:          string(job.Status),
		Dir:             job.Dir,
		Report:          job.Report,
		Summary:         job.Summary,
		Error:           job.Error,
		CreatedAtUnixMs: job.CreatedAt.UnixMilli(),
		Timestamp:       time.Now().UTC().UnixMilli(),
	}
	if !job.EndedAt.IsZero() {
		p.EndedAtUnixMs = job.EndedAt.UnixMilli()
	}
	if len(counts) > 0 {
		p.Counts = make(map[string]int, len(counts))
		for k, v := range counts {
			p.Counts[string(k)] = v
		}
	}
	return p
}

// Notifier posts job completions to a webhook
type Notifier struct {
	httpClient *http.Client
	url        string
	secret     string
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewNotifier creates a notifier from the notify section; a nil section
// yields a notifier that does nothing.
func NewNotifier(cfg *config.Notify) *Notifier {
	n := &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    utils.BackoffFromConfig("exponential", 1000, 0),
	}
	if cfg == nil {
		return n
	}
	n.url = cfg.CallbackURL
	n.secret = cfg.CallbackSecret
	n.maxRetries = cfg.MaxRetries
	n.backoff = utils.BackoffFromConfig(cfg.Backoff, cfg.BaseMs, 0)
	return n
}

// Enabled reports whether a callback URL is configured
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify posts the payload and retries non-2xx answers and transport errors.
// {run_id} in the URL is replaced by the payload's run id.
func (n *Notifier) Notify(ctx context.Context, payload NotificationPayload) error {
	if !n.Enabled() {
		return nil
	}
	target := strings.ReplaceAll(n.url, "{run_id}", url.PathEscape(payload.RunID))
	if err := validateCallbackURL(target); err != nil {
		logger.Warn("callback URL rejected", "callback_url", target, "error", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.backoff.NextDelay(attempt - 1)
			logger.Debug("retrying notification", "run_id", payload.RunID, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = n.send(ctx, target, body)
		if lastErr == nil {
			logger.Info("notification sent", "run_id", payload.RunID, "status", payload.Status)
			return nil
		}
		logger.Warn("notification attempt failed", "callback_url", target, "run_id", payload.RunID,
			"attempt", attempt+1, "error", lastErr)
	}

	logger.Error("failed to send notification after retries", "callback_url", target,
		"run_id", payload.RunID, "max_retries", n.maxRetries, "last_error", lastErr)
	return fmt.Errorf("notify %s: %w", payload.RunID, lastErr)
}

func (n *Notifier) send(ctx context.Context, target string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "photosim/1.0")
	if n.secret != "" {
		req.Header.Set(SecretHeader, n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// validateCallbackURL accepts http(s) URLs with a host, refusing metadata
// endpoints and literal internal addresses. The hostname localhost is allowed
// for local receivers.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if metadataHosts[host] {
		return fmt.Errorf("%w: %s", ErrMetadataEndpoint, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsUnspecified() || isPrivateIP(ip) {
			return fmt.Errorf("%w: %s", ErrInternalHost, host)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
