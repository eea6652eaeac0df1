package services

import (
	"context"
	"time"

	"github.com/georgenoob1234/freshline-brain/internal/models"
	"github.com/georgenoob1234/freshline-brain/internal/transport"
)

// UIClient pushes consolidated scan results to the UI service.
type UIClient struct {
	c *transport.Client
}

// NewUIClient constructs a UIClient against baseURL.
func NewUIClient(baseURL string, timeout time.Duration) *UIClient {
	return &UIClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (u *UIClient) Close() { u.c.Close() }

// Publish sends the scan result to the UI; the response body is ignored.
func (u *UIClient) Publish(ctx context.Context, result models.ScanResult) error {
	_, err := u.c.PostJSON(ctx, "/update", result)
	return err
}

// MainServerClient forwards consolidated scan results upstream.
type MainServerClient struct {
	c *transport.Client
}

// NewMainServerClient constructs a MainServerClient against baseURL.
func NewMainServerClient(baseURL string, timeout time.Duration) *MainServerClient {
	return &MainServerClient{c: transport.New(baseURL, timeout)}
}

// Close releases pooled transport resources.
func (m *MainServerClient) Close() { m.c.Close() }

// Publish sends the scan result upstream; the response body is ignored.
func (m *MainServerClient) Publish(ctx context.Context, result models.ScanResult) error {
	_, err := m.c.PostJSON(ctx, "/ingest", result)
	return err
}

// SetObserver registers a per-call duration/outcome callback on the UI
// client.
func (u *UIClient) SetObserver(f func(outcome string, d time.Duration)) {
	u.c.SetObserver(f)
}

// SetObserver registers a per-call duration/outcome callback on the
// main-server client.
func (m *MainServerClient) SetObserver(f func(outcome string, d time.Duration)) {
	m.c.SetObserver(f)
}
