package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultDaysValid = 7

	defaultTimeout = 30 * time.Second
	loginPath      = "/api/login"
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	TokenStore TokenStore
	// Username and Password, when both are set, let the client log in on its
	// own when no token is stored and again once after a 401 or 403.
	Username string
	Password string
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokenStore TokenStore
	username   string
	password   string
}

func New(options Options) (*Client, error) {
	if strings.TrimSpace(options.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}

	baseURL, err := url.Parse(strings.TrimRight(options.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme: %q", baseURL.Scheme)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	tokenStore := options.TokenStore
	if tokenStore == nil {
		tokenStore = NewMemoryTokenStore()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokenStore: tokenStore,
		username:   options.Username,
		password:   options.Password,
	}, nil
}

// Login exchanges the credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, username string, password string) (*Token, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(loginPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	defer resp.Body.Close()

	var token Token
	if err := decodeResponse(resp, &token); err != nil {
		var responseErr *ResponseError
		if errors.As(err, &responseErr) && isAuthFailure(responseErr.StatusCode) {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, responseErr.Detail)
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("login response did not contain an access token")
	}

	if err := c.tokenStore.SetToken(token.AccessToken); err != nil {
		return nil, err
	}

	logrus.WithField("username", username).Debug("logged in")
	return &token, nil
}

func (c *Client) Logout() error {
	return c.tokenStore.Clear()
}

func (c *Client) ListPeers(ctx context.Context, query string) ([]*Peer, error) {
	path := "/api/peers/list"
	if query = strings.TrimSpace(query); query != "" {
		path += "?" + url.Values{"query": {query}}.Encode()
	}

	var peers []*Peer
	if err := c.do(ctx, http.MethodGet, path, nil, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

// CreatePeer asks for a new peer, a non positive daysValid falls back to
// DefaultDaysValid.
func (c *Client) CreatePeer(ctx context.Context, daysValid int) (*Peer, error) {
	if daysValid <= 0 {
		daysValid = DefaultDaysValid
	}

	var p Peer
	if err := c.do(ctx, http.MethodPost, "/api/peers/new", &createPeerRequest{DaysValid: daysValid}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePeer(ctx context.Context, publicKey string) (bool, error) {
	var resp deletePeerResponse
	if err := c.do(ctx, http.MethodPost, "/api/peers/delete", &deletePeerRequest{PublicKey: publicKey}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (c *Client) Stats(ctx context.Context) ([]*Stat, error) {
	var stats []*Stat
	if err := c.do(ctx, http.MethodGet, "/api/peers/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) ServerConfig(ctx context.Context) (*ServerConfig, error) {
	var serverConfig ServerConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &serverConfig); err != nil {
		return nil, err
	}
	return &serverConfig, nil
}

func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := c.do(ctx, http.MethodGet, "/api/serverinfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// do sends an authenticated request. A rejected token triggers one login with
// the configured credentials followed by one retry of the original request.
func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if isAuthFailure(resp.StatusCode) {
		discard(resp)

		if !c.hasCredentials() {
			if err := c.tokenStore.Clear(); err != nil {
				logrus.WithError(err).Warn("failed to clear rejected token")
			}
			return ErrUnauthorized
		}

		logrus.
			WithField("status", resp.StatusCode).
			WithField("path", path).
			Debug("token rejected, logging in again")

		if _, err := c.Login(ctx, c.username, c.password); err != nil {
			return err
		}

		token, err = c.tokenStore.Token()
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, payload, token)
		if err != nil {
			return err
		}
		if isAuthFailure(resp.StatusCode) {
			discard(resp)
			return ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// ensureToken is the guard in front of every authenticated call: without a
// stored token the request is never sent unless credentials allow a login.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	token, err := c.tokenStore.Token()
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	if !c.hasCredentials() {
		return "", ErrNotAuthenticated
	}

	if _, err := c.Login(ctx, c.username, c.password); err != nil {
		return "", err
	}
	return c.tokenStore.Token()
}

func (c *Client) send(ctx context.Context, method string, path string, payload []byte, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) hasCredentials() bool {
	return c.username != "" && c.password != ""
}

func isAuthFailure(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		responseErr := &ResponseError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			responseErr.Detail = errResp.Detail
		}
		return responseErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
