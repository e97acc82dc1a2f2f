// Package rerank calls an optional external reranker service that reorders
// a candidate document list against a query. It is a pure HTTP
// collaborator: the Retrieval Engine decides whether to call it at all.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single rerank call; the reranker is an optional
// collaborator and must never be allowed to stall a retrieval request
// indefinitely.
const DefaultTimeout = 10 * time.Second

// Doc is one candidate document sent to the reranker.
type Doc struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type request struct {
	Query string `json:"query"`
	TopN  int    `json:"top_n"`
	Docs  []Doc  `json:"docs"`
}

type response struct {
	RerankedDocs []Doc `json:"reranked_docs"`
}

// Client calls the reranker's POST /rerank endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL, with DefaultTimeout applied per
// call (not as the http.Client's own Timeout, so a caller-supplied context
// deadline can still cut it shorter).
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// Rerank posts query, docs and topN (as top_n) to the reranker and returns
// the docs in the order the reranker sends back; the list is not trimmed
// client-side. Failures are surfaced as errors — callers
// that want a BM25/vector fallback on rerank failure must implement it
// themselves; this client does not silently degrade.
func (c *Client) Rerank(ctx context.Context, query string, docs []Doc, topN int) ([]Doc, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	body, err := json.Marshal(request{Query: query, TopN: topN, Docs: docs})
	if err != nil {
		return nil, fmt.Errorf("rerank: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rerank: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank: unexpected status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("rerank: decode response: %w", err)
	}
	return out.RerankedDocs, nil
}
