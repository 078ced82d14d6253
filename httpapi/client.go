package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benjamonnguyen/pomomo-focus"
)

// Client talks to a running daemon.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		hc:      &http.Client{Timeout: 3 * time.Second},
	}
}

// Signal asks the daemon to check scheduled notifications now.
func (c *Client) Signal(ctx context.Context) error {
	body, err := json.Marshal(Message{Type: pomomo.CheckScheduledNotifications})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("signal daemon: %w", err)
	}
	defer resp.Body.Close() //nolint

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("signal daemon: unexpected status %s", resp.Status)
	}
	return nil
}

func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint
	return resp.StatusCode == http.StatusOK
}
