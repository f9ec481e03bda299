// Copyright (c) 2025 BVK Chaitanya

package pushover

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)

	c, err := New(&Keys{ApplicationKey: "app", UserKey: "user"}, &Options{
		Priority:    1,
		MessagesURL: s.URL + "/1/messages.json",
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("could not decode request: %v", err)
		}
		io.WriteString(w, `{"status":1,"request":"abc"}`)
	})

	at := time.Unix(1700000000, 0)
	if err := c.SendMessage(context.Background(), at, t.Name()); err != nil {
		t.Fatal(err)
	}
	if got["token"] != "app" || got["user"] != "user" || got["message"] != t.Name() {
		t.Fatalf("unexpected request body %v", got)
	}
	if got["timestamp"] != float64(at.Unix()) {
		t.Fatalf("unexpected timestamp %v", got["timestamp"])
	}
	if got["title"] != "hashbid" || got["priority"] != float64(1) {
		t.Fatalf("unexpected title or priority in %v", got)
	}

	long := strings.Repeat("é", MaxMessageLen)
	if err := c.SendMessage(context.Background(), at, long); err != nil {
		t.Fatal(err)
	}
	msg, _ := got["message"].(string)
	if len(msg) > MaxMessageLen || !utf8.ValidString(msg) || !strings.HasPrefix(long, msg) {
		t.Fatalf("long message is not cut at a character boundary (%d bytes)", len(msg))
	}
}

func TestSendMessageError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"status":0,"errors":["user identifier is invalid"]}`)
	})
	err := c.SendMessage(context.Background(), time.Now(), "x")
	if !errors.Is(err, ErrRejected) || !strings.Contains(err.Error(), "user identifier is invalid") {
		t.Fatalf("want a rejection with the reason, got %v", err)
	}

	if _, err := New(&Keys{UserKey: "user"}, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for missing application key, got %v", err)
	}
	if _, err := New(&Keys{ApplicationKey: "app", UserKey: "user"}, &Options{Priority: 2}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for emergency priority, got %v", err)
	}
}

type countingSender struct {
	n int
}

func (s *countingSender) SendMessage(context.Context, time.Time, string) error {
	s.n++
	return nil
}

func TestAlerterFreeze(t *testing.T) {
	sender := new(countingSender)
	a := NewAlerter(sender, time.Hour)

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if sent, err := a.Alert(ctx, now, "cycle", "failed %d", 1); err != nil || !sent {
		t.Fatalf("first alert must be sent: %v", err)
	}
	if sent, _ := a.Alert(ctx, now.Add(time.Minute), "cycle", "failed %d", 2); sent {
		t.Fatalf("second alert within the freeze interval must be suppressed")
	}
	if sent, _ := a.Alert(ctx, now.Add(time.Minute), "other", "failed"); !sent {
		t.Fatalf("alerts with different keys are independent")
	}
	if sent, _ := a.Alert(ctx, now.Add(time.Hour), "cycle", "failed %d", 3); !sent {
		t.Fatalf("alert after the freeze interval must be sent")
	}
	if sender.n != 3 {
		t.Fatalf("want 3 messages, got %d", sender.n)
	}
}
