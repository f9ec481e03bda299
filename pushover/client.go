// Copyright (c) 2025 BVK Chaitanya

package pushover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLen is the longest message body accepted by Pushover.
const MaxMessageLen = 1024

// ErrRejected is returned when Pushover refuses a message.
var ErrRejected = errors.New("message rejected")

type Keys struct {
	ApplicationKey string `json:"application_key"`
	UserKey        string `json:"user_key"`
}

func (k *Keys) Check() error {
	if k == nil || len(k.ApplicationKey) == 0 || len(k.UserKey) == 0 {
		return fmt.Errorf("pushover application and user keys are required: %w", os.ErrInvalid)
	}
	return nil
}

type Options struct {
	// Title is shown above every message. Defaults to "hashbid".
	Title string

	// Priority is the Pushover message priority in [-2, 1]. Emergency
	// priority needs acknowledgements and is not supported.
	Priority int

	// MessagesURL overrides the api endpoint.
	MessagesURL string

	// Timeout for a single send.
	Timeout time.Duration
}

func (v *Options) setDefaults() {
	if len(v.Title) == 0 {
		v.Title = "hashbid"
	}
	if len(v.MessagesURL) == 0 {
		v.MessagesURL = "https://api.pushover.net/1/messages.json"
	}
	if v.Timeout == 0 {
		v.Timeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.Priority < -2 || v.Priority > 1 {
		return fmt.Errorf("pushover priority %d is out of range: %w", v.Priority, os.ErrInvalid)
	}
	if v.Timeout < 0 {
		return fmt.Errorf("pushover timeout cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

// Client sends alert messages to a single Pushover user.
type Client struct {
	keys Keys
	opts Options

	httpClient *http.Client
}

func New(keys *Keys, opts *Options) (*Client, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		keys:       *keys,
		opts:       *opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
	return c, nil
}

type message struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Priority  int    `json:"priority,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type response struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// SendMessage sends the message stamped with the given time. Long messages
// are cut to MaxMessageLen.
func (c *Client) SendMessage(ctx context.Context, at time.Time, msg string) error {
	m := &message{
		Token:     c.keys.ApplicationKey,
		User:      c.keys.UserKey,
		Title:     c.opts.Title,
		Message:   truncate(msg, MaxMessageLen),
		Priority:  c.opts.Priority,
		Timestamp: at.Unix(),
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(m); err != nil {
		return fmt.Errorf("could not json-encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.MessagesURL, &body)
	if err != nil {
		return fmt.Errorf("could not create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("could not send pushover message", "err", err)
		return fmt.Errorf("could not perform post request: %w", err)
	}
	defer resp.Body.Close()

	r := new(response)
	if err := json.NewDecoder(resp.Body).Decode(r); err != nil {
		return fmt.Errorf("could not json-decode response for http-status %d: %w", resp.StatusCode, err)
	}
	if r.Status != 1 {
		reason := strings.Join(r.Errors, "; ")
		if len(reason) == 0 {
			reason = "no reason given"
		}
		slog.Warn("pushover message is rejected", "status", resp.StatusCode, "request", r.Request, "reason", reason)
		return fmt.Errorf("http-status %d: %w: %s", resp.StatusCode, ErrRejected, reason)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
