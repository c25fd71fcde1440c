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
	"sync"

	"golang.org/x/time/rate"

	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

// NewLimiterFromRPM builds a token bucket for a requests-per-minute quota.
// The burst covers roughly ten seconds of the quota so short spikes pass
// without a wait while sustained traffic is held to the configured rate.
func NewLimiterFromRPM(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := rpm / 6
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// Limiters holds one token bucket per provider so that traffic to one
// backend never consumes another backend's quota. Every caller that hits
// the same provider must draw from the same registry so the configured
// rate is a real ceiling, not a per-client one.
type Limiters struct {
	mu      sync.Mutex
	buckets map[providers.Kind]*rate.Limiter
}

// NewLimiters builds an empty registry.
func NewLimiters() *Limiters {
	return &Limiters{buckets: make(map[providers.Kind]*rate.Limiter)}
}

// Set installs the limiter for a provider, replacing any existing one.
func (l *Limiters) Set(kind providers.Kind, limiter *rate.Limiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[kind] = limiter
}

// Get returns the provider's limiter, installing an unlimited bucket for
// providers that were never configured.
func (l *Limiters) Get(kind providers.Kind) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.buckets[kind]
	if !ok {
		limiter = rate.NewLimiter(rate.Inf, 1)
		l.buckets[kind] = limiter
	}
	return limiter
}
