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

package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

// fakeAdapter counts calls and replays a scripted error sequence before
// succeeding.
type fakeAdapter struct {
	mu      sync.Mutex
	calls   int64
	errs    []error
	text    string
	latency time.Duration
}

func (f *fakeAdapter) Kind() providers.Kind { return providers.KindGemini }

func (f *fakeAdapter) Generate(ctx context.Context, _ providers.Prompt) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.text, nil
}

func (f *fakeAdapter) Stream(context.Context, providers.Prompt) (<-chan providers.Delta, bool) {
	return nil, false
}

func (f *fakeAdapter) callCount() int64 { return atomic.LoadInt64(&f.calls) }

func fastOptions() Options {
	return Options{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestGenerateCachesResponses(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{text: "FADE IN"}
	client := NewClient(fake, nil, fastOptions())
	prompt := providers.Prompt{System: "sys", User: "chunk one"}

	first, err := client.Generate(ctx, prompt)
	require.NoError(t, err)
	second, err := client.Generate(ctx, prompt)
	require.NoError(t, err)

	assert.Equal(t, "FADE IN", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fake.callCount())
}

func TestGenerateDistinctPromptsMiss(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{text: "out"}
	client := NewClient(fake, nil, fastOptions())

	_, err := client.Generate(ctx, providers.Prompt{User: "alpha"})
	require.NoError(t, err)
	_, err = client.Generate(ctx, providers.Prompt{User: "beta"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fake.callCount())
}

func TestGenerateDeduplicatesInFlight(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{text: "shared", latency: 50 * time.Millisecond}
	client := NewClient(fake, nil, fastOptions())
	prompt := providers.Prompt{User: "same chunk"}

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := client.Generate(ctx, prompt)
			require.NoError(t, err)
			results[i] = text
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
	assert.Equal(t, int64(1), fake.callCount())
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{
		text: "recovered",
		errs: []error{
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrTimeout, assert.AnError),
		},
	}
	client := NewClient(fake, nil, fastOptions())

	text, err := client.Generate(ctx, providers.Prompt{User: "flaky"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int64(3), fake.callCount())
}

func TestGenerateDoesNotRetryAuthFailures(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{
		errs: []error{providers.NewError(providers.ErrAuth, assert.AnError)},
	}
	client := NewClient(fake, nil, fastOptions())

	_, err := client.Generate(ctx, providers.Prompt{User: "bad key"})
	require.Error(t, err)
	assert.Equal(t, providers.ErrAuth, providers.Classify(err))
	assert.Equal(t, int64(1), fake.callCount())
}

func TestGenerateGivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{
		errs: []error{
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
		},
	}
	client := NewClient(fake, nil, fastOptions())

	_, err := client.Generate(ctx, providers.Prompt{User: "down"})
	require.Error(t, err)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, int64(4), fake.callCount())
}

func TestGenerateHonorsRateLimiter(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{text: "ok"}
	// 1 token available, then one token every 50ms.
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	client := NewClient(fake, limiter, fastOptions())

	start := time.Now()
	_, err := client.Generate(ctx, providers.Prompt{User: "first"})
	require.NoError(t, err)
	_, err = client.Generate(ctx, providers.Prompt{User: "second"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestCacheKeyShape(t *testing.T) {
	a := CacheKey(providers.KindGemini, providers.Prompt{System: "s", User: "u"})
	b := CacheKey(providers.KindGemini, providers.Prompt{System: "s", User: "u"})
	c := CacheKey(providers.KindOpenAI, providers.Prompt{System: "s", User: "u"})
	d := CacheKey(providers.KindGemini, providers.Prompt{System: "s", User: "v"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestNewLimiterFromRPM(t *testing.T) {
	unlimited := NewLimiterFromRPM(0)
	assert.Equal(t, rate.Inf, unlimited.Limit())

	metered := NewLimiterFromRPM(60)
	assert.InDelta(t, 1.0, float64(metered.Limit()), 1e-9)
	assert.Equal(t, 10, metered.Burst())

	tiny := NewLimiterFromRPM(3)
	assert.Equal(t, 1, tiny.Burst())
}

func TestLimitersRegistry(t *testing.T) {
	reg := NewLimiters()
	custom := NewLimiterFromRPM(120)
	reg.Set(providers.KindOpenAI, custom)

	assert.Same(t, custom, reg.Get(providers.KindOpenAI))
	// Unconfigured providers get an unlimited bucket.
	assert.Equal(t, rate.Inf, reg.Get(providers.KindAnthropic).Limit())
	// Repeated lookups share one bucket, so two clients hitting the same
	// provider split its quota instead of doubling it.
	assert.Same(t, reg.Get(providers.KindAnthropic), reg.Get(providers.KindAnthropic))
}
