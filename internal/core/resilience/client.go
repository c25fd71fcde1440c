// Copyright 2025 Jay Cherian
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resilience wraps a provider adapter with the protection layers a
// long batch run needs against a flaky upstream: a TTL-bounded LRU response
// cache, in-flight deduplication, a per-provider token bucket, classified
// exponential-backoff retries, and a circuit breaker (breaker.go).
//
// Layer order on a call:
//
//	cache -> singleflight -> rate limit -> retry( breaker( adapter ) )
//
// so a cache hit costs nothing, concurrent identical prompts collapse into
// one upstream request, and retries respect the quota they are retrying
// under.
package resilience

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

const (
	// DefaultCacheSize bounds the response cache entry count.
	DefaultCacheSize = 50
	// DefaultCacheTTL is how long a cached response stays fresh.
	DefaultCacheTTL = 30 * time.Minute
	// DefaultMaxRetries bounds retry attempts beyond the first call.
	DefaultMaxRetries = 3
	// keyAffixLen is how many leading and trailing prompt bytes the cache
	// key keeps alongside the digest.
	keyAffixLen = 32
)

// Options tune the protection layers. Zero values fall back to the
// package defaults.
type Options struct {
	CacheSize      int
	CacheTTL       time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (o *Options) fill() {
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
}

// Client is a resilient front over one provider adapter. It satisfies the
// providers.Adapter contract itself so callers cannot tell a protected
// adapter from a bare one.
type Client struct {
	adapter providers.Adapter
	opts    Options
	cache   *lru.LRU[string, string]
	group   singleflight.Group
	limiter *rate.Limiter
}

// NewClient wraps the adapter. The limiter may be nil for unmetered
// providers.
func NewClient(adapter providers.Adapter, limiter *rate.Limiter, opts Options) *Client {
	opts.fill()
	return &Client{
		adapter: adapter,
		opts:    opts,
		cache:   lru.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL),
		limiter: limiter,
	}
}

func (c *Client) Kind() providers.Kind { return c.adapter.Kind() }

// CacheKey derives the lookup key for a prompt: provider kind, prompt
// length, a content digest, and short head/tail affixes. The affixes make
// key collisions across near-identical prompts visible in logs without
// storing the whole prompt.
func CacheKey(kind providers.Kind, prompt providers.Prompt) string {
	joined := prompt.System + "\x00" + prompt.User
	sum := sha256.Sum256([]byte(joined))
	head := joined
	if len(head) > keyAffixLen {
		head = head[:keyAffixLen]
	}
	tail := joined
	if len(tail) > keyAffixLen {
		tail = tail[len(tail)-keyAffixLen:]
	}
	return fmt.Sprintf("%s:%d:%s:%x:%x", kind, len(joined), hex.EncodeToString(sum[:]), head, tail)
}

// Generate returns the completion for the prompt, served from cache when
// possible. Identical prompts issued concurrently share a single upstream
// call, and transient upstream failures are retried with exponential
// backoff.
func (c *Client) Generate(ctx context.Context, prompt providers.Prompt) (string, error) {
	key := CacheKey(c.adapter.Kind(), prompt)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		// Another waiter may have populated the cache while this call was
		// queued behind the singleflight lock.
		if text, ok := c.cache.Get(key); ok {
			return text, nil
		}
		text, err := c.callWithRetry(ctx, prompt)
		if err != nil {
			return "", err
		}
		c.cache.Add(key, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		slog.DebugContext(ctx, "deduplicated identical in-flight prompt", "provider", c.adapter.Kind())
	}
	return result.(string), nil
}

// Stream returns a delta channel for the prompt. Cache hits are replayed
// as a single delta; live streams are mirrored into the cache once they
// finish cleanly so a retry of the same chunk is free.
func (c *Client) Stream(ctx context.Context, prompt providers.Prompt) (<-chan providers.Delta, bool) {
	key := CacheKey(c.adapter.Kind(), prompt)
	if text, cached := c.cache.Get(key); cached {
		out := make(chan providers.Delta, 1)
		out <- providers.Delta{Text: text}
		close(out)
		return out, true
	}

	// The limiter gates the call before the upstream request starts; the
	// adapter begins producing as soon as Stream returns.
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			out := make(chan providers.Delta, 1)
			out <- providers.Delta{Err: err}
			close(out)
			return out, true
		}
	}

	upstream, ok := c.adapter.Stream(ctx, prompt)
	if !ok {
		return nil, false
	}

	out := make(chan providers.Delta, 8)
	go func() {
		defer close(out)
		var assembled []byte
		for delta := range upstream {
			if delta.Err != nil {
				out <- delta
				return
			}
			assembled = append(assembled, delta.Text...)
			out <- delta
		}
		if len(assembled) > 0 {
			c.cache.Add(key, string(assembled))
		}
	}()
	return out, true
}

// callWithRetry runs one rate-limited upstream call per attempt, retrying
// only the failure classes that can recover. A server-suggested wait from
// a rate-limit rejection takes precedence over the computed backoff.
func (c *Client) callWithRetry(ctx context.Context, prompt providers.Prompt) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxInterval = c.opts.MaxBackoff

	attempt := 0
	operation := func() (string, error) {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", backoff.Permanent(err)
			}
		}
		text, err := c.adapter.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}

		class := providers.Classify(err)
		if !class.Retryable() {
			return "", backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "provider call failed, will retry",
			"provider", c.adapter.Kind(), "class", string(class), "attempt", attempt, "error", err.Error())
		// Honor a server-suggested wait before the computed backoff kicks in.
		if wait := retryAfter(err); wait > 0 {
			select {
			case <-ctx.Done():
				return "", backoff.Permanent(ctx.Err())
			case <-time.After(wait):
			}
		}
		return "", err
	}

	return backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.opts.MaxRetries), ctx))
}

func retryAfter(err error) time.Duration {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
