// Package mail fetches unread messages from the Gmail REST API.
package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

const apiBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// Message is the metadata the assistant reads out for one mail.
type Message struct {
	ID      string
	From    string
	Subject string
	Snippet string
}

// Format renders a message the way it is spoken or printed.
func Format(m Message) string {
	if m.Subject == "" {
		return fmt.Sprintf("Message from %s.", m.From)
	}
	return fmt.Sprintf("Message from %s: %s.", m.From, m.Subject)
}

type Client struct {
	http  *http.Client
	token string
	base  string
}

// NewClient builds a Gmail client around an OAuth bearer token.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, token: token, base: apiBase}
}

// FetchNew lists unread messages and loads From/Subject for each.
func (c *Client) FetchNew(ctx context.Context) ([]Message, error) {
	body, err := c.get(ctx, c.base+"/messages?q=is:unread&maxResults=10")
	if err != nil {
		return nil, err
	}

	var messages []Message
	for _, id := range gjson.GetBytes(body, "messages.#.id").Array() {
		msg, err := c.fetchOne(ctx, id.String())
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *Client) fetchOne(ctx context.Context, id string) (Message, error) {
	body, err := c.get(ctx, c.base+"/messages/"+id+
		"?format=metadata&metadataHeaders=From&metadataHeaders=Subject")
	if err != nil {
		return Message{}, err
	}
	return parseMessage(id, body), nil
}

func parseMessage(id string, body []byte) Message {
	msg := Message{
		ID:      id,
		Snippet: gjson.GetBytes(body, "snippet").String(),
	}
	gjson.GetBytes(body, "payload.headers").ForEach(func(_, h gjson.Result) bool {
		switch h.Get("name").String() {
		case "From":
			msg.From = h.Get("value").String()
		case "Subject":
			msg.Subject = h.Get("value").String()
		}
		return true
	})
	return msg
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gmail request: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
