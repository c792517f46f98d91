package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/planweave/planweave/internal/ai"
)

// APIMetricsLogName is the JSONL file every timed call appends to.
const APIMetricsLogName = "api_metrics.jsonl"

// Completer is the slice of the generation client the harness needs.
type Completer interface {
	Complete(ctx context.Context, req ai.Request) (*ai.Response, error)
}

// CallRecord is one timed generation call, as logged to the metrics JSONL.
type CallRecord struct {
	TS             string  `json:"ts"`
	Feature        string  `json:"feature"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	LatencyS       float64 `json:"latency_s"`
	TokensIn       int64   `json:"tokens_in"`
	TokensOut      int64   `json:"tokens_out"`
	EstCost        float64 `json:"est_cost"`
	Currency       string  `json:"currency"`
	RawLen         int     `json:"raw_len"`
	PricingApplied bool    `json:"pricing_applied"`
	JSONOK         bool    `json:"ok"`
	SchemaOK       bool    `json:"schema_ok"`
	Error          string  `json:"error,omitempty"`
}

// Caller wraps a completion client with timing, GBP costing and an
// append-only JSONL metrics log. Safe for concurrent use.
type Caller struct {
	llm     Completer
	model   string
	logPath string
	mu      sync.Mutex
}

// NewCaller creates a timed caller logging into logDir. An empty logDir
// disables the metrics log.
func NewCaller(llm Completer, model, logDir string) (*Caller, error) {
	c := &Caller{llm: llm, model: model}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		c.logPath = filepath.Join(logDir, APIMetricsLogName)
	}
	return c, nil
}

// Model returns the model every call is priced and labeled with.
func (c *Caller) Model() string {
	return c.model
}

// Call runs one timed completion. The returned record is logged and filled
// in even when the call fails, so failure latency still shows up in the
// summaries.
func (c *Caller) Call(ctx context.Context, prompt string, temperature float64, feature string) (string, *CallRecord, error) {
	start := time.Now()
	resp, err := c.llm.Complete(ctx, ai.Request{
		Prompt:      prompt,
		Model:       c.model,
		Temperature: &temperature,
		Operation:   feature,
	})
	latency := time.Since(start).Seconds()

	rec := &CallRecord{
		TS:             time.Now().UTC().Format(time.RFC3339),
		Feature:        feature,
		Model:          c.model,
		Temperature:    temperature,
		LatencyS:       round3(latency),
		Currency:       "GBP",
		PricingApplied: PricingKnown(c.model),
	}

	var text string
	if err != nil {
		rec.Error = err.Error()
	} else {
		text = resp.Text
		rec.TokensIn = resp.Usage.InputTokens
		rec.TokensOut = resp.Usage.OutputTokens
		rec.EstCost = round6(EstimateCostGBP(resp.Usage, c.model))
		rec.RawLen = len(text)
	}

	if logErr := c.appendLog(rec); logErr != nil && err == nil {
		err = fmt.Errorf("failed to write metrics log: %w", logErr)
	}
	return text, rec, err
}

func (c *Caller) appendLog(rec *CallRecord) error {
	if c.logPath == "" {
		return nil
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
