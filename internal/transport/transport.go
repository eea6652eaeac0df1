// Package transport provides the shared HTTP client wrapper every downstream
// service client builds on: a policy-configured *http.Client wrapper
// returning typed results instead of raw *http.Response values.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Failure reports a downstream call that failed at the transport layer:
// network error, non-2xx status, timeout, or a response shape that failed
// validation.
type Failure struct {
	URL    string
	Status int
	Op     string
	Cause  error
}

func (e *Failure) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: %s %s: status %d: %v", e.Op, e.URL, e.Status, e.Cause)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Cause)
}

func (e *Failure) Unwrap() error { return e.Cause }

// Client wraps a base URL and an *http.Client with a fixed timeout. It is
// safe for concurrent use; its pooled transport is released by Close.
type Client struct {
	baseURL string
	http    *http.Client
	observe func(outcome string, d time.Duration)
}

// New constructs a Client against baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetObserver registers a callback invoked after every request with the
// outcome ("ok" or "error") and elapsed duration, so callers can record the
// freshline_client_call_duration_seconds histogram without this package
// depending on the metrics package.
func (c *Client) SetObserver(f func(outcome string, d time.Duration)) {
	c.observe = f
}

// Close releases pooled connections. It is idempotent.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// PostJSON POSTs a JSON-encoded payload and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	url := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Failure{URL: url, Op: "POST " + path, Cause: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Failure{URL: url, Op: "POST " + path, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "POST "+path)
}

// MultipartField is a single file part in a multipart upload.
type MultipartField struct {
	FieldName string
	Filename  string
	Content   []byte
	MIMEType  string
}

// PostMultipart POSTs one or more file parts plus form fields.
func (c *Client) PostMultipart(ctx context.Context, path string, files []MultipartField, form map[string]string) ([]byte, error) {
	url := c.baseURL + path

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.FieldName, f.Filename)}
		if f.MIMEType != "" {
			header["Content-Type"] = []string{f.MIMEType}
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, &Failure{URL: url, Op: "POST " + path, Cause: fmt.Errorf("create multipart part: %w", err)}
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, &Failure{URL: url, Op: "POST " + path, Cause: fmt.Errorf("write multipart part: %w", err)}
		}
	}
	for k, v := range form {
		if err := w.WriteField(k, v); err != nil {
			return nil, &Failure{URL: url, Op: "POST " + path, Cause: fmt.Errorf("write multipart field %s: %w", k, err)}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &Failure{URL: url, Op: "POST " + path, Cause: fmt.Errorf("close multipart writer: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, &Failure{URL: url, Op: "POST " + path, Cause: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, "POST "+path)
}

// GetBinary GETs raw bytes from an absolute or base-relative location.
func (c *Client) GetBinary(ctx context.Context, location string) ([]byte, error) {
	url := location
	if !isAbsoluteURL(location) {
		url = c.baseURL + location
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Failure{URL: url, Op: "GET", Cause: err}
	}
	return c.do(req, "GET")
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	body, err := c.doUnobserved(req, op)
	if c.observe != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.observe(outcome, time.Since(start))
	}
	return body, err
}

func (c *Client) doUnobserved(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Failure{URL: req.URL.String(), Op: op, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{URL: req.URL.String(), Status: resp.StatusCode, Op: op, Cause: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Failure{URL: req.URL.String(), Status: resp.StatusCode, Op: op, Cause: fmt.Errorf("non-2xx response")}
	}
	return body, nil
}

func isAbsoluteURL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return i+2 < len(s) && s[i+1] == '/' && s[i+2] == '/'
		}
		if !isSchemeChar(s[i]) {
			return false
		}
	}
	return false
}

func isSchemeChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '+' || b == '-' || b == '.'
}
