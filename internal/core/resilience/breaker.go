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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

// BreakerSettings tune the circuit breaker around a provider. Zero values
// fall back to the defaults below.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once this many calls in a row
	// fail.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a
	// probe request through.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many probe requests the half-open state
	// admits.
	HalfOpenRequests uint32
}

func (s *BreakerSettings) fill() {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
}

// BreakerAdapter wraps a provider adapter with a circuit breaker so a dead
// upstream fails fast instead of burning the retry budget on every chunk.
// Only the blocking path is guarded; streams report their failures through
// the delta channel and the orchestrator falls back chunk by chunk.
type BreakerAdapter struct {
	adapter providers.Adapter
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerAdapter wraps the adapter with a named breaker.
func NewBreakerAdapter(adapter providers.Adapter, settings BreakerSettings) *BreakerAdapter {
	settings.fill()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(adapter.Kind()),
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"provider", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerAdapter{adapter: adapter, breaker: breaker}
}

func (b *BreakerAdapter) Kind() providers.Kind { return b.adapter.Kind() }

// Generate runs the wrapped call through the breaker. An open breaker
// surfaces as a model-unavailable failure, which the retry layer treats as
// retryable once the open timeout has passed.
func (b *BreakerAdapter) Generate(ctx context.Context, prompt providers.Prompt) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.adapter.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", providers.NewError(providers.ErrModelUnavailable,
				fmt.Errorf("%s circuit open: %w", b.adapter.Kind(), err))
		}
		return "", err
	}
	return result.(string), nil
}

// Stream passes through to the wrapped adapter.
func (b *BreakerAdapter) Stream(ctx context.Context, prompt providers.Prompt) (<-chan providers.Delta, bool) {
	return b.adapter.Stream(ctx, prompt)
}

// State exposes the breaker state for health reporting.
func (b *BreakerAdapter) State() gobreaker.State {
	return b.breaker.State()
}
