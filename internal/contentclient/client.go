// Package contentclient reaches the content store over HTTP on behalf of the analysis service.
package contentclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docstore/internal/model"
	"docstore/internal/service"
)

// Client implements service.ContentSource against the content store's /api/files routes.
type Client struct {
	BaseURL string
	Client  *http.Client
}

var _ service.ContentSource = (*Client)(nil)

// New returns a client for the content store at baseURL. Every call is
// bounded by timeout and traced through otelhttp.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchMetadata calls GET /api/files/{id}/metadata.
func (c *Client) FetchMetadata(ctx context.Context, id string) (*model.FileMetadata, error) {
	var md model.FileMetadata
	if err := c.getJSON(ctx, "fetch metadata", id, "/metadata", &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// FetchBytes calls GET /api/files/{id}/bytes and returns the decoded content.
func (c *Client) FetchBytes(ctx context.Context, id string) ([]byte, error) {
	var fc model.FileContent
	if err := c.getJSON(ctx, "fetch bytes", id, "/bytes", &fc); err != nil {
		return nil, err
	}
	if fc.Data == nil {
		return []byte{}, nil
	}
	return fc.Data, nil
}

func (c *Client) getJSON(ctx context.Context, op, id, suffix string, out any) error {
	endpoint := c.BaseURL + "/api/files/" + url.PathEscape(id) + suffix

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return &service.UpstreamError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		// The store rejects ids it cannot parse with 400; neither can exist.
		return fmt.Errorf("%w: %s", service.ErrNotFound, id)
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &service.UpstreamError{Op: op, Err: fmt.Errorf("content store returned status %d", resp.StatusCode)}
	default:
		return fmt.Errorf("%s: content store returned status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &service.UpstreamError{Op: op, Timeout: true, Err: err}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
