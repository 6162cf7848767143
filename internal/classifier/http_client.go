package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// HTTPClient talks to the classification API over HTTP with a bounded
// per-attempt timeout and bounded retries on temporary failures.
type HTTPClient struct {
	baseURL    string
	key        string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

type classifyRequest struct {
	Content       string `json:"content"`
	ConditionType string `json:"condition_type"`
}

func NewHTTPClient(baseURL, key string, timeout time.Duration, maxRetries int, retryDelay time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		key:        key,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

func (c *HTTPClient) Classify(ctx context.Context, content string, conditionType models.ConditionType) (*models.Classification, error) {
	metrics.Global().ClassifierCalls.Add(1)

	raw, err := json.Marshal(classifyRequest{
		Content:       content,
		ConditionType: string(conditionType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.Global().ClassifierErrors.Add(1)
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		verdict, err := c.attempt(ctx, raw)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if !isTemporaryError(err) {
			break
		}
		logging.Debug("classifier attempt %d failed, retrying: %v", attempt+1, err)
	}

	metrics.Global().ClassifierErrors.Add(1)
	return nil, lastErr
}

func (c *HTTPClient) attempt(ctx context.Context, body []byte) (*models.Classification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var verdict models.Classification
		if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
			return nil, fmt.Errorf("malformed classifier response: %w", err)
		}
		if verdict.Confidence < 0 || verdict.Confidence > 1 {
			return nil, fmt.Errorf("classifier confidence out of range: %f", verdict.Confidence)
		}
		return &verdict, nil
	case http.StatusTooManyRequests:
		return nil, errRateLimited
	default:
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, string(payload))
	}
}

var errRateLimited = errors.New("rate limited")

func isTemporaryError(err error) bool {
	if errors.Is(err, errRateLimited) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
