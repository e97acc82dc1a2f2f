// Package embedding turns source chunks into vectors for the Search Index,
// batching requests to stay under a character budget, bounding concurrency,
// and retrying transient provider failures while preserving input order.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrDisabled is returned by callers that check Adapter.Enabled before
// embedding rather than calling Embed, and is never returned by Embed
// itself — a disabled Adapter answers every call with nil vectors.
var ErrDisabled = errors.New("embedding: provider disabled")

// Provider is the minimal surface an embedding backend must offer. Inputs
// and outputs are positionally aligned.
type Provider interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

const (
	// charBudget bounds a single provider request's combined input length.
	charBudget = 20000
	// maxConcurrent caps in-flight provider requests.
	maxConcurrent = 6
	// maxRetries is the number of retries after the initial attempt.
	maxRetries = 3
)

// Adapter batches, rate-limits, and retries calls to a Provider. A nil
// Provider makes the Adapter "disabled": Embed returns one nil vector per
// input instead of calling out, matching deployments with no embedding
// credentials configured.
type Adapter struct {
	provider Provider
	sem      *semaphore.Weighted
	sleep    func(time.Duration)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSleepFunc overrides the backoff sleep, used by tests to skip real
// delays between retries.
func WithSleepFunc(sleep func(time.Duration)) Option {
	return func(a *Adapter) { a.sleep = sleep }
}

// NewAdapter wraps provider. Pass a nil provider to build a disabled
// adapter.
func NewAdapter(provider Provider, opts ...Option) *Adapter {
	a := &Adapter{provider: provider, sem: semaphore.NewWeighted(maxConcurrent), sleep: time.Sleep}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether this adapter has a live provider.
func (a *Adapter) Enabled() bool { return a.provider != nil }

// Embed returns one vector per entry in inputs, in the same order, batching
// inputs into charBudget-sized groups and dispatching batches concurrently
// (capped at maxConcurrent in flight). When disabled, every output is nil.
func (a *Adapter) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if !a.Enabled() {
		return make([][]float32, len(inputs)), nil
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	batches := packBatches(inputs, charBudget)
	out := make([][]float32, len(inputs))

	results := make(chan batchResult, len(batches))
	for _, b := range batches {
		b := b
		if err := a.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("embedding: acquire slot: %w", err)
		}
		go func() {
			defer a.sem.Release(1)
			vecs, err := a.embedBatch(ctx, b.texts)
			results <- batchResult{batch: b, vecs: vecs, err: err}
		}()
	}

	for range batches {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		for i, idx := range r.batch.indices {
			out[idx] = r.vecs[i]
		}
	}
	return out, nil
}

type batchResult struct {
	batch batch
	vecs  [][]float32
	err   error
}

// embedBatch drops empty-string entries before calling the provider — an
// empty input yields a nil vector without touching the backend — then
// splices the results back into their original positions within the batch.
func (a *Adapter) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	nonEmpty := make([]string, 0, len(texts))
	nonEmptyIdx := make([]int, 0, len(texts))
	for i, t := range texts {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
			nonEmptyIdx = append(nonEmptyIdx, i)
		}
	}

	out := make([][]float32, len(texts))
	if len(nonEmpty) == 0 {
		return out, nil
	}

	vecs, err := a.embedWithRetry(ctx, nonEmpty)
	if err != nil {
		return nil, err
	}
	for i, idx := range nonEmptyIdx {
		out[idx] = vecs[i]
	}
	return out, nil
}

func (a *Adapter) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(pow5(attempt))*time.Second + time.Duration(rand.Intn(30))*time.Second
			a.sleep(backoff)
		}
		vecs, err := a.provider.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embedding: exhausted %d retries: %w", maxRetries, lastErr)
}

func pow5(n int) int64 {
	r := int64(1)
	for i := 0; i < n; i++ {
		r *= 5
	}
	return r
}

type batch struct {
	texts   []string
	indices []int
}

// packBatches greedily groups inputs into batches whose combined length
// stays under budget, preserving original indices so callers can scatter
// results back into place. A single input longer than budget gets its own
// batch rather than being dropped.
func packBatches(inputs []string, budget int) []batch {
	var batches []batch
	var cur batch
	size := 0
	for i, s := range inputs {
		if size > 0 && size+len(s) > budget {
			batches = append(batches, cur)
			cur = batch{}
			size = 0
		}
		cur.texts = append(cur.texts, s)
		cur.indices = append(cur.indices, i)
		size += len(s)
	}
	if len(cur.texts) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
