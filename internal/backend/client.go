// Package backend is the typed client for the campus REST API. Wire
// shapes are validated at this boundary; the rest of the daemon only
// sees store types and typed errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

// Client talks to the campus backend. Every request carries a
// client-enforced timeout; abandoning a caller cancels the request via
// its context.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// response types must embed envelope so do() can branch on status.
type enveloped interface {
	status() (int, string)
}

func (e envelope) status() (int, string) { return e.Status, e.Msg }

// do posts a JSON body (GET when body is nil) and decodes the reply
// into out. A non-1 status field becomes a BusinessError even when the
// HTTP status is 200.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected HTTP %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	if env, ok := out.(enveloped); ok {
		if st, msg := env.status(); st != 1 {
			return &BusinessError{Status: st, Msg: msg}
		}
	}
	return nil
}

// SendOTP asks the backend to issue a verification code for email.
// The returned pin is cached locally for offline re-checks.
func (c *Client) SendOTP(ctx context.Context, email string) (string, error) {
	var resp otpResponse
	err := c.do(ctx, http.MethodPost, "/auth/send-otp",
		map[string]string{"email": email}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Pin, nil
}

// VerifyOTP exchanges an email/pin pair for the account record.
func (c *Client) VerifyOTP(ctx context.Context, email, pin string) (*store.User, error) {
	var resp accountResponse
	err := c.do(ctx, http.MethodPost, "/auth/verify-otp",
		map[string]string{"email": email, "pin": pin}, &resp)
	if err != nil {
		return nil, err
	}
	u := accountToUser(resp.Account)
	return &u, nil
}

// Contacts lists the 1:1 contacts visible to a user.
func (c *Client) Contacts(ctx context.Context, userID string, role store.Role) ([]store.Channel, error) {
	var resp contactsResponse
	path := fmt.Sprintf("/contacts/%s/%s", url.PathEscape(userID), url.PathEscape(string(role)))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	channels := make([]store.Channel, 0, len(resp.Contacts))
	for _, ct := range resp.Contacts {
		channels = append(channels, store.Channel{
			ID:      ct.ID,
			Name:    ct.Name,
			Avatar:  ct.Avatar,
			Members: []string{userID, ct.ID},
		})
	}
	return channels, nil
}

// Groups lists the group channels a user belongs to.
func (c *Client) Groups(ctx context.Context, userID string) ([]store.Channel, error) {
	var resp groupsResponse
	path := "/groups/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	channels := make([]store.Channel, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		channels = append(channels, groupToChannel(g))
	}
	return channels, nil
}

// CreateGroup creates a group on the backend and returns its channel.
func (c *Client) CreateGroup(ctx context.Context, name string, memberIDs []string) (*store.Channel, error) {
	var resp groupResponse
	err := c.do(ctx, http.MethodPost, "/groups/create",
		map[string]any{"name": name, "members": memberIDs}, &resp)
	if err != nil {
		return nil, err
	}
	ch := groupToChannel(resp.Group)
	return &ch, nil
}

// AddMember adds a user to a group.
func (c *Client) AddMember(ctx context.Context, groupID, userID string) error {
	var resp struct{ envelope }
	return c.do(ctx, http.MethodPost, "/groups/add-member",
		map[string]string{"group_id": groupID, "user_id": userID}, &resp)
}

// RemoveMember removes a user from a group.
func (c *Client) RemoveMember(ctx context.Context, groupID, userID string) error {
	var resp struct{ envelope }
	return c.do(ctx, http.MethodPost, "/groups/remove-member",
		map[string]string{"group_id": groupID, "user_id": userID}, &resp)
}

// PersistMessage stores an outgoing message on the backend and returns
// the backend-assigned message id.
func (c *Client) PersistMessage(ctx context.Context, m store.Message) (string, error) {
	var resp sendMessageResponse
	err := c.do(ctx, http.MethodPost, "/messages/send-msg", sendMessageRequest{
		ClientID:  m.ClientID,
		ChannelID: m.ChannelID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		Type:      string(m.Type),
		FileURI:   m.FileURI,
		ReplyTo:   m.ReplyTo,
		SentAt:    m.Timestamp.UnixMilli(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

// History fetches the persisted messages for a channel.
func (c *Client) History(ctx context.Context, channelID string, role store.Role) ([]store.Message, error) {
	var resp historyResponse
	path := fmt.Sprintf("/messages/show-msg/%s/%s", url.PathEscape(channelID), url.PathEscape(string(role)))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	msgs := make([]store.Message, 0, len(resp.Messages))
	for _, wm := range resp.Messages {
		msgs = append(msgs, store.Message{
			ID:        wm.ID,
			ChannelID: wm.ChannelID,
			SenderID:  wm.SenderID,
			Body:      wm.Body,
			Type:      messageType(wm.Type),
			FileURI:   wm.FileURI,
			ReplyTo:   wm.ReplyTo,
			Status:    store.StatusDelivered,
			Timestamp: time.UnixMilli(wm.SentAt),
		})
	}
	return msgs, nil
}

// RTMToken mints a realtime bridge token for a user.
func (c *Client) RTMToken(ctx context.Context, userID string) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/rtm/token",
		map[string]string{"user_id": userID}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func accountToUser(a wireAccount) store.User {
	return store.User{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Role:     store.Role(a.Role),
		Avatar:   a.Avatar,
		Approved: a.Approved,
	}
}

func groupToChannel(g wireGroup) store.Channel {
	return store.Channel{
		ID:      g.ID,
		Name:    g.Name,
		Members: g.Members,
		Avatar:  g.Avatar,
		IsGroup: true,
	}
}

func messageType(t string) store.MessageType {
	switch store.MessageType(t) {
	case store.TypeImage, store.TypeFile, store.TypeVideo:
		return store.MessageType(t)
	default:
		return store.TypeText
	}
}
