package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"classhub/pkg/interfaces"
)

// SandboxClient talks to the external code-execution sandbox over HTTP
// ARCHITECTURAL DISCOVERY: The sandbox is opaque to the session server - one
// POST with source and language, one JSON result back. Transport hiccups get
// a single bounded retry; sandbox-reported failures do not, since rerunning
// broken code yields the same answer.
type SandboxClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// NewSandboxClient creates a sandbox client. timeout caps one attempt
// including connection setup; maxRetries bounds retransmissions on transport
// errors.
func NewSandboxClient(baseURL string, timeout time.Duration, maxRetries int) *SandboxClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &SandboxClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
	}
}

// Execute runs source code in the sandbox and returns its captured result.
func (c *SandboxClient) Execute(ctx context.Context, code, language string) (*interfaces.ExecutionResult, error) {
	body, err := json.Marshal(executeRequest{Language: language, Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution request: %w", err)
	}

	var result *interfaces.ExecutionResult
	operation := func() error {
		var attemptErr error
		result, attemptErr = c.attempt(ctx, body)
		return attemptErr
	}

	// FUNCTIONAL DISCOVERY: Constant backoff - the caller already holds a
	// hard deadline in ctx, so exponential growth buys nothing here.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("sandbox execution failed: %w", err)
	}
	return result, nil
}

// attempt performs one POST /execute round trip.
func (c *SandboxClient) attempt(ctx context.Context, body []byte) (*interfaces.ExecutionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused, then report the status.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("sandbox returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var result interfaces.ExecutionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode sandbox response: %w", err))
	}
	return &result, nil
}
