// Package backend submits digitized sheets to the examiner grading service.
//
// The client is a narrow side-effecting leaf: the extraction pipeline never
// touches the network, and everything here is a single blocking POST with no
// retry policy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/omr-scan/internal/results"
)

// DefaultBaseURL points at a local examiner API, matching the development
// deployment of the grading backend.
const DefaultBaseURL = "http://localhost:8080/api/v1/examiner"

// EvaluatePayload is the evaluation request body.
type EvaluatePayload struct {
	AnswerKey      []results.AnswerKeyEntry     `json:"answerKey"`
	StudentAnswers []results.StudentAnswerEntry `json:"studentAnswers"`
}

// StatusError is a non-2xx response from the backend. The body is preserved
// for diagnostics.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the examiner backend.
type Client struct {
	// BaseURL is the examiner API root, e.g.
	// "http://localhost:8080/api/v1/examiner".
	BaseURL string

	// Token, when non-empty, is sent as a bearer Authorization header.
	Token string

	// HTTPClient overrides the transport; nil uses a client with a 30s
	// timeout.
	HTTPClient *http.Client
}

// New creates a client for the given API root. An empty baseURL falls back
// to DefaultBaseURL.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, Token: token}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Evaluate posts an answer key and a set of student answers for grading:
//
//	POST {BaseURL}/exam/evaluate/{submissionID}
//
// The backend's JSON response is returned unmodified. Any non-2xx status
// yields a *StatusError with the response body.
func (c *Client) Evaluate(ctx context.Context, submissionID string, payload EvaluatePayload) (json.RawMessage, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/exam/evaluate/%s", strings.TrimRight(c.BaseURL, "/"), submissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return json.RawMessage(respBody), nil
}
