// Package chatwork is a minimal client for the Chatwork v2 messages
// API, used to deliver the bot's replies to the room.
package chatwork

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.chatwork.com/v2"

// Client is the HTTP client
type Client interface {
	Do(r *http.Request) (*http.Response, error)
}

// API posts messages on behalf of the bot account.
type API struct {
	client  Client
	token   string
	baseURL string
}

// New constructs an *API authenticating with token.
func New(client Client, token string) *API {
	return &API{
		client:  client,
		token:   token,
		baseURL: defaultBaseURL,
	}
}

// PostMessage posts body to the given room.
func (a *API) PostMessage(ctx context.Context, roomID, body string) error {
	form := url.Values{}
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/rooms/%s/messages", a.baseURL, roomID),
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building chatwork request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-ChatWorkToken", a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to chatwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chatwork returned non-200 status code: %d - %s", resp.StatusCode, resp.Status)
	}
	return nil
}
