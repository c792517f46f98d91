// Package retrieval talks to the vector store that supplies grounding
// context for plan generation. Documents live in named collections and are
// queried by semantic similarity to free text.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Collection names used by the planner.
const (
	CollectionProjects = "projects"
	CollectionTeams    = "organizational_teams"
)

// DefaultTopK is the number of neighbours fetched when the caller passes 0.
const DefaultTopK = 3

// Config holds vector store connection settings.
type Config struct {
	// BaseURL is the root of the vector store HTTP API,
	// e.g. "http://localhost:8001".
	BaseURL string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
}

// Document is one entry in a collection.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is the ranked answer to a similarity query.
type Result struct {
	IDs       []string            `json:"ids"`
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
}

// Client is an HTTP client for the vector store.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a vector store client. Returns an error when the base
// URL is missing or unparseable.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("retrieval base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid retrieval base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Query returns up to topK documents from collection ranked by similarity
// to text. topK <= 0 uses DefaultTopK.
func (c *Client) Query(ctx context.Context, collection, text string, topK int) (*Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	body := map[string]any{
		"query_text": text,
		"n_results":  topK,
	}

	var result Result
	path := fmt.Sprintf("/collections/%s/query", url.PathEscape(collection))
	if err := c.post(ctx, path, body, &result); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return &result, nil
}

// Upsert writes documents into collection. Re-upserting an existing id
// overwrites that document, so seeding is idempotent.
func (c *Client) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	body := map[string]any{"documents": docs}
	path := fmt.Sprintf("/collections/%s/upsert", url.PathEscape(collection))
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

// Ping checks that the vector store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vector store unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vector store health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vector store returned %d: %s", resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
