package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// APIError represents a non-success HTTP response from OKX.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("okx api error %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether the error is a transient upstream fault.
// The upstream serves these endpoints through a CDN that answers with a wide
// range of status codes under load, so every non-success response is treated
// as retryable.
func (e *APIError) IsTransient() bool {
	return true
}

// doRequest performs a GET request against the given path.
// referer is sent as the Referer header; the ecotrade endpoints reject
// requests without one.
func (c *Client) doRequest(ctx context.Context, path, referer string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req, referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// setHeaders attaches the browser-like headers the ecotrade endpoints expect.
func (c *Client) setHeaders(req *http.Request, referer string) {
	h := req.Header
	h.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36")
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("App-Type", "web")
	h.Set("X-Cdn", c.baseURL)
	h.Set("X-Locale", c.locale)
	h.Set("X-Utc", strconv.Itoa(c.utcOffset))
	if c.deviceID != "" {
		h.Set("Devid", c.deviceID)
	}
	if referer != "" {
		h.Set("Referer", referer)
	}
}

// get performs a GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path, referer string, query url.Values, result any) error {
	body, err := c.doRequest(ctx, path, referer, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
