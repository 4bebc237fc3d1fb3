// Package httpregistry is a minimal concrete adapter over
// registry.Registry. The device registry's transport is explicitly out
// of scope for the reconciliation engine (it is a collaborator named by
// interface only), so this client exists purely to give cmd/btmesh-operator
// something real to dial; it makes no assumption about the registry's
// own implementation beyond a small JSON list/update contract.
package httpregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/btmesh-io/btmesh-operator/internal/device"
	"github.com/btmesh-io/btmesh-operator/internal/registry"
)

// Client is an HTTP-backed registry.Registry, following the teacher's
// plain *http.Client usage (cmd/anx-edge-agent) rather than a REST
// framework, since the wire contract here is a two-call list/update.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

var _ registry.Registry = (*Client)(nil)

// New returns a Client with a default HTTP client.
func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: &http.Client{}}
}

func (c *Client) ListDevices(ctx context.Context, application string) ([]device.Device, error) {
	u := fmt.Sprintf("%s/applications/%s/devices", c.BaseURL, url.PathEscape(application))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list devices: unexpected status %d", resp.StatusCode)
	}

	var devices []device.Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}
	return devices, nil
}

func (c *Client) UpdateDevice(ctx context.Context, dev device.Device) error {
	body, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("encode device: %w", err)
	}

	u := fmt.Sprintf("%s/devices/%s", c.BaseURL, url.PathEscape(dev.Name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("update device %s: %w", dev.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("update device %s: unexpected status %d", dev.Name, resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
