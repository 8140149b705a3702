package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 8 << 20

// postJSON sends body as JSON and returns the raw response body. Non-2xx
// responses are returned as *APIError with the message extracted by errMsg.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any,
	errMsg func([]byte) (code, message string)) ([]byte, time.Duration, error) {
	tag := "llm/" + strings.ToLower(provider)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: marshal request: %w", tag, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: create request: %w", tag, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: request failed: %w", tag, err)
	}
	defer resp.Body.Close()
	duration := time.Since(start)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, duration, fmt.Errorf("%s: read response: %w", tag, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Provider: provider, StatusCode: resp.StatusCode}
		if code, msg := errMsg(respBody); msg != "" {
			apiErr.Code, apiErr.Message = code, msg
		} else {
			apiErr.Message = string(respBody)
		}
		return nil, duration, apiErr
	}
	return respBody, duration, nil
}
