// Package ai wraps the external text-generation service: a single shared
// client with retry, circuit breaking, and a resilient JSON coercion
// pipeline for model output.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
)

// Model constants. Plan generation and reconciliation use the default
// model; document exports and evaluation runs may override per call.
const (
	ModelDefault = "claude-sonnet-4-5-20250929"
	ModelLight   = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, checking PLANWEAVE_MODEL first.
func GetDefaultModel() string {
	if model := os.Getenv("PLANWEAVE_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// Request is a single completion request. Temperature is optional; nil
// leaves the sampling temperature at the service default.
type Request struct {
	Prompt      string
	Model       string   // empty = client default
	MaxTokens   int      // 0 = 8192
	Temperature *float64 // nil = service default
	Operation   string   // label for logs and retry messages, e.g. "generation"
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response holds the text and accounting for one completion call.
type Response struct {
	Text    string
	Usage   Usage
	Latency time.Duration
}

// Client is the shared generation-service client. It is constructed once at
// process start and passed by reference into the components that need it.
type Client struct {
	api            *anthropic.Client
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
}

// Config holds client configuration.
type Config struct {
	APIKey string // if empty, reads ANTHROPIC_API_KEY
	Model  string // default model (empty = GetDefaultModel())
	Retry  RetryConfig
}

// NewClient creates a generation-service client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	api := anthropic.NewClient(option.WithAPIKey(apiKey))

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var concurrencySem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	return &Client{
		api:            &api,
		model:          model,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		concurrencySem: concurrencySem,
	}, nil
}

// Model returns the client's default model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one prompt to the generation service and returns the
// concatenated text blocks from the response. Network and rate-limit
// failures are retried with exponential backoff; the circuit breaker
// fails fast after repeated failures.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	operation := req.Operation
	if operation == "" {
		operation = "completion"
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	startTime := time.Now()
	var message *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.api.Messages.New(attemptCtx, params)
		if apiErr != nil {
			return apiErr
		}
		message = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generation service call failed: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Text: text,
		Usage: Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
		Latency: time.Since(startTime),
	}, nil
}

// HealthCheck reports whether the client is able to serve requests.
// Returns an error while the circuit breaker is open.
func (c *Client) HealthCheck() error {
	if c.circuitBreaker != nil {
		state, failures, _ := c.circuitBreaker.GetMetrics()
		if state == CircuitOpen {
			return fmt.Errorf("generation service unavailable: %w (failures=%d, retry in %v)",
				ErrCircuitOpen, failures, c.retry.OpenTimeout)
		}
	}
	return nil
}
