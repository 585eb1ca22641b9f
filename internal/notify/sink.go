package notify

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
)

// Sink is the outbound channel visible notifications are delivered through.
type Sink interface {
	Deliver(n Notification, d Directive) error
	// Available reports whether the sink can deliver at all; the center
	// exposes this as the "notification permission".
	Available() bool
}

// LogSink writes notifications to the process log. Useful for development
// and as the default when no push channel is configured.
type LogSink struct{}

func (LogSink) Deliver(n Notification, d Directive) error {
	log.Printf("notify: [%s] %s: %s", n.Identifier, n.Content.Title, n.Content.Body)
	return nil
}

func (LogSink) Available() bool { return true }

const pushoverMessagesURL = "https://api.pushover.net/1/messages.json"

// PushoverSink delivers notifications through the Pushover message API.
type PushoverSink struct {
	token  string
	user   string
	client *http.Client
}

func NewPushoverSink(client *http.Client, token, user string) *PushoverSink {
	return &PushoverSink{token: token, user: user, client: client}
}

func (s *PushoverSink) Available() bool {
	return s.token != "" && s.user != ""
}

func (s *PushoverSink) Deliver(n Notification, d Directive) error {
	params := url.Values{}
	params.Set("token", s.token)
	params.Set("user", s.user)
	params.Set("title", n.Content.Title)
	params.Set("message", n.Content.Body)
	if !d.PlaySound || !n.Content.Sound {
		params.Set("sound", "none")
	}

	resp, err := s.client.PostForm(pushoverMessagesURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover api error: status %s, body %s", resp.Status, string(body))
	}
	return nil
}
