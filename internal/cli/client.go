package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
)

// Client talks to a running daemon's HTTP API.
type Client struct {
	resty *resty.Client
}

// NewClient creates a client for the API at addr (host:port or URL).
func NewClient(addr string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	r := resty.New().
		SetBaseURL(addr).
		SetTimeout(10*time.Second).
		SetRetryCount(retryClient.RetryMax).
		SetRetryWaitTime(retryClient.RetryWaitMin).
		SetRetryMaxWaitTime(retryClient.RetryWaitMax).
		SetHeader("User-Agent", "switcherd-cli/"+version).
		SetTransport(retryClient.HTTPClient.Transport)
	return &Client{resty: r}
}

type apiError struct {
	Error string `json:"error"`
}

// KillResult is the reply of a kill request.
type KillResult struct {
	Mode   string `json:"mode"`
	Killed int    `json:"killed"`
	Error  string `json:"error,omitempty"`
}

// Kill asks the daemon to terminate windows by mode.
func (c *Client) Kill(mode string) (KillResult, error) {
	var out KillResult
	var apiErr apiError
	resp, err := c.resty.R().
		SetBody(map[string]string{"mode": mode}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/kill")
	if err := check(resp, err, &apiErr); err != nil {
		return KillResult{}, err
	}
	return out, nil
}

// Entries lists the daemon's app entries.
func (c *Client) Entries() ([]engine.EntrySnapshot, error) {
	var out struct {
		Entries []engine.EntrySnapshot `json:"entries"`
	}
	var apiErr apiError
	resp, err := c.resty.R().SetResult(&out).SetError(&apiErr).Get("/api/entries")
	if err := check(resp, err, &apiErr); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// State returns the daemon's global flags.
func (c *Client) State() (engine.State, error) {
	var out engine.State
	var apiErr apiError
	resp, err := c.resty.R().SetResult(&out).SetError(&apiErr).Get("/api/state")
	if err := check(resp, err, &apiErr); err != nil {
		return engine.State{}, err
	}
	return out, nil
}

func check(resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status(), apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status())
	}
	return nil
}
