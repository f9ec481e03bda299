// Copyright (c) 2025 BVK Chaitanya

package pushover

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sender sends a single notification message.
type Sender interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

// Alerter sends at most one message per key within the freeze interval.
type Alerter struct {
	sender Sender

	freeze time.Duration

	mu sync.Mutex

	freezeDeadlineMap map[string]time.Time
}

func NewAlerter(sender Sender, freeze time.Duration) *Alerter {
	return &Alerter{
		sender:            sender,
		freeze:            freeze,
		freezeDeadlineMap: make(map[string]time.Time),
	}
}

// Alert sends the message unless another message with the same key was sent
// in the last freeze interval. Returns true if the message was sent.
func (a *Alerter) Alert(ctx context.Context, now time.Time, key string, format string, args ...any) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if deadline, ok := a.freezeDeadlineMap[key]; ok && now.Before(deadline) {
		slog.Debug("alert is suppressed", "key", key, "until", deadline)
		return false, nil
	}
	if err := a.sender.SendMessage(ctx, now, fmt.Sprintf(format, args...)); err != nil {
		return false, err
	}
	a.freezeDeadlineMap[key] = now.Add(a.freeze)
	return true, nil
}
