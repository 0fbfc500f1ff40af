package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// do sends a JSON request to endpoint and decodes a 2xx response into result
// Every request carries a fresh X-Request-Id and the bearer token when one is set.
func (c *Client) do(ctx context.Context, method, endpoint string, body, result any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.tokenMutex.RLock()
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	c.tokenMutex.RUnlock()

	c.logger.Debug("backend request", "method", method, "url", endpoint, "requestId", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, int64(constants.MaxResponseBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(limited)
		c.logger.Debug("backend error", "requestId", requestID, "status", resp.StatusCode)
		return newHTTPError(resp, data)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(limited).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// HTTPError is a non-2xx backend response
// Message and Reason come from the backend's {"statusCode","message","error"} body when present.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte

	Message string
	Reason  string
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Message
		e.Reason = parsed.Error
	}
	return e
}

func (e *HTTPError) Error() string {
	switch {
	case e.Reason != "" && e.Message != "":
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Reason, e.Message)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	case e.Reason != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Reason)
	case len(e.Body) > 0:
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Body)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
}

// IsNotFound reports a 404, which status sources treat as "endpoint unavailable"
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
