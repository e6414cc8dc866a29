package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts built requests to a managed online endpoint.
type Client struct {
	EndpointURI string
	client      *http.Client
}

// NewClient creates a new endpoint client.
func NewClient(endpointURI string) *Client {
	return &Client{
		EndpointURI: endpointURI,
		client:      newHTTPClient(),
	}
}

// NewClientWithHTTPClient creates an endpoint client that sends through hc.
func NewClientWithHTTPClient(endpointURI string, hc *http.Client) *Client {
	if hc == nil {
		hc = newHTTPClient()
	}
	return &Client{
		EndpointURI: endpointURI,
		client:      hc,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Minute,
	}
}

// CompletionResponse is the decoded endpoint body.
// Output is empty when the endpoint omitted the field.
type CompletionResponse struct {
	Output string `json:"output"`
}

// StatusError is returned for any non-2xx endpoint response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// Complete sends req to the endpoint and decodes the response body.
// Non-2xx responses are returned as *StatusError carrying the raw body text.
func (c *Client) Complete(ctx context.Context, req *Request) (*CompletionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EndpointURI, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &out, nil
}
