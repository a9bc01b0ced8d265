package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// apiError is a non-2xx response from the server.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type apiClient struct {
	base   string
	http   *http.Client
	bearer string
}

func newAPIClient(base string, hc *http.Client) *apiClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &apiClient{base: strings.TrimRight(base, "/"), http: hc}
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn"`
}

func (t tokenPair) lifetime() time.Duration {
	n, err := strconv.ParseInt(t.ExpiresIn, 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(n) * time.Second
}

type subscription struct {
	UUID         string    `json:"uuid"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
	UUIDMismatch bool      `json:"uuidMismatch,omitempty"`
}

type feedUUID struct {
	URL       string `json:"url"`
	Canonical string `json:"canonical"`
	UUID      string `json:"uuid"`
}

func (c *apiClient) register(ctx context.Context, username, password string) (string, error) {
	var out struct {
		StableID string `json:"stableId"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": password}, &out)
	return out.StableID, err
}

func (c *apiClient) login(ctx context.Context, username, password string) (tokenPair, error) {
	var out tokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password}, &out)
	return out, err
}

func (c *apiClient) refresh(ctx context.Context, username, refreshToken string) (tokenPair, error) {
	var out tokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{"username": username, "refreshToken": refreshToken}, &out)
	return out, err
}

func (c *apiClient) logout(ctx context.Context, username, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"username": username, "refreshToken": refreshToken}, nil)
}

func (c *apiClient) subscribe(ctx context.Context, feedURL, claimed string) (subscription, error) {
	var out subscription
	err := c.do(ctx, http.MethodPost, "/api/subscriptions", map[string]string{"url": feedURL, "uuid": claimed}, &out)
	return out, err
}

func (c *apiClient) subscriptions(ctx context.Context, limit, offset int) ([]subscription, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out []subscription
	err := c.do(ctx, http.MethodGet, "/api/subscriptions?"+q.Encode(), nil, &out)
	return out, err
}

func (c *apiClient) unsubscribe(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/subscriptions/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) feedUUID(ctx context.Context, feedURL string) (feedUUID, error) {
	var out feedUUID
	err := c.do(ctx, http.MethodGet, "/api/feeds/uuid?url="+url.QueryEscape(feedURL), nil, &out)
	return out, err
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &apiError{Status: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		e.Code, e.Message = body.Error, body.Message
		return e
	}
	e.Message = strings.TrimSpace(string(b))
	return e
}

func isStatus(err error, status int) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == status
}
