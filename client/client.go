// Package client is the Go SDK for a redchat server. It handles
// registration, login, the public-key directory (with a local cache), the
// friend graph, and ciphertext history; Messenger adds the client-side
// encrypt/decrypt pipeline on top.
package client

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/redchat/redchat"
	"github.com/redchat/redchat/envelope"
)

const defaultTimeout = 10 * time.Second

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrUnauthorized = fmt.Errorf("unauthorized")
)

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
	token   string
}

// New creates a client for the server at baseURL. Directory entries are
// cached without expiry: public keys never rotate, so there is nothing to
// invalidate.
func New(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   cache.New(cache.NoExpiration, 0),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Token returns the session token obtained by Login.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, response any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		var payload struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, payload.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Register creates an account and publishes the public key. The matching
// private key stays with the caller; the server never sees it.
func (c *Client) Register(ctx context.Context, username, password, publicKeyPEM string) error {
	req := redchat.RegisterRequest{
		Username:  username,
		Password:  password,
		PublicKey: publicKeyPEM,
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", req, nil)
}

// Login authenticates and stores the session token on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	req := redchat.LoginRequest{Username: username, Password: password}
	var resp redchat.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// PublicKey resolves a user's published key through the local cache. A
// cache miss costs one directory fetch; concurrent misses may fetch
// redundantly, which is harmless because entries are immutable.
func (c *Client) PublicKey(ctx context.Context, userID string) (*rsa.PublicKey, error) {
	cacheKey := "pubkey:" + userID
	if x, found := c.cache.Get(cacheKey); found {
		return x.(*rsa.PublicKey), nil
	}

	var resp redchat.PublicKeyResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/keys/"+userID, nil, &resp); err != nil {
		return nil, err
	}

	publicKey, err := envelope.ParsePublicKey(resp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("directory returned an unusable key for %s: %w", userID, err)
	}

	c.cache.Set(cacheKey, publicKey, cache.NoExpiration)
	return publicKey, nil
}

func (c *Client) Usernames(ctx context.Context) ([]string, error) {
	var usernames []string
	err := c.do(ctx, http.MethodGet, "/api/auth/usernames", nil, &usernames)
	return usernames, err
}

func (c *Client) AddFriend(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/api/friends/"+userID, nil, nil)
}

func (c *Client) RemoveFriend(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/friends/"+userID, nil, nil)
}

func (c *Client) Friends(ctx context.Context) ([]redchat.Friend, error) {
	var friends []redchat.Friend
	err := c.do(ctx, http.MethodGet, "/api/friends", nil, &friends)
	return friends, err
}

// History returns the raw ciphertext conversation with another user,
// ascending by SentAt. Use Messenger.History for the decrypted form.
func (c *Client) History(ctx context.Context, otherID string) ([]redchat.Message, error) {
	var messages []redchat.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+otherID, nil, &messages)
	return messages, err
}
