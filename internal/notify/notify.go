// Package notify delivers reminder and completion payloads to the external
// email automation webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
)

const (
	defaultTimeout = 10 * time.Second

	// MessageSent is recorded for every accepted webhook call.
	MessageSent = "Email sent successfully"
)

// Result is the outcome of one webhook call.
type Result struct {
	Success bool
	Message string
}

// ReminderPayload is the body sent for an inactivity reminder.
type ReminderPayload struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	BookName     string `json:"book_name"`
	StartDate    string `json:"start_date"`
	DaysInactive int    `json:"days_inactive"`
	ResumeLink   string `json:"resume_link"`
}

// CompletionPayload is the body sent when a reader finishes a book.
type CompletionPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	BookName string `json:"book_name"`
	Genre    string `json:"genre"`
	Link     string `json:"link"`
}

// Notifier sends automation payloads. Implementations never return an error;
// every failure is described in the Result.
type Notifier interface {
	SendReminder(ctx context.Context, p ReminderPayload) Result
	SendCompletion(ctx context.Context, p CompletionPayload) Result
}

// Config holds the webhook endpoints.
type Config struct {
	ReminderURL   string
	CompletionURL string
	Timeout       time.Duration
	// PerSecond paces calls per endpoint. Zero means unlimited.
	PerSecond float64
}

// Client posts JSON payloads to the configured webhooks.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

var _ Notifier = (*Client)(nil)

// New creates a webhook client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	if cfg.PerSecond > 0 {
		c.limiter = ratelimit.New(cfg.PerSecond, 1)
	}
	return c
}

// Close releases the pacing limiter.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

// SendReminder posts an inactivity reminder.
func (c *Client) SendReminder(ctx context.Context, p ReminderPayload) Result {
	return c.post(ctx, c.cfg.ReminderURL, p)
}

// SendCompletion posts a book completion notice.
func (c *Client) SendCompletion(ctx context.Context, p CompletionPayload) Result {
	return c.post(ctx, c.cfg.CompletionURL, p)
}

func (c *Client) post(ctx context.Context, url string, payload any) Result {
	if url == "" {
		return Result{Message: "automation endpoint not configured"}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return Result{Message: fmt.Sprintf("rate limit wait: %v", err)}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Message: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mimirswell/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("automation webhook failed", "error", err)
		return Result{Message: err.Error()}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("automation webhook rejected", "status", resp.StatusCode)
		return Result{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Result{Success: true, Message: MessageSent}
}

// Recorder is an in-memory Notifier. Set Fail to make every call fail with
// that message.
type Recorder struct {
	mu          sync.Mutex
	Fail        string
	Reminders   []ReminderPayload
	Completions []CompletionPayload
}

var _ Notifier = (*Recorder)(nil)

// SendReminder records p.
func (r *Recorder) SendReminder(_ context.Context, p ReminderPayload) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reminders = append(r.Reminders, p)
	return r.result()
}

// SendCompletion records p.
func (r *Recorder) SendCompletion(_ context.Context, p CompletionPayload) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completions = append(r.Completions, p)
	return r.result()
}

// ReminderCount returns the number of reminder calls.
func (r *Recorder) ReminderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Reminders)
}

// CompletionCount returns the number of completion calls.
func (r *Recorder) CompletionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Completions)
}

func (r *Recorder) result() Result {
	if r.Fail != "" {
		return Result{Message: r.Fail}
	}
	return Result{Success: true, Message: MessageSent}
}
