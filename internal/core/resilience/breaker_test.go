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
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{
		errs: []error{
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
		},
	}
	breaker := NewBreakerAdapter(fake, BreakerSettings{
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Hour,
	})

	_, err := breaker.Generate(ctx, providers.Prompt{User: "a"})
	require.Error(t, err)
	_, err = breaker.Generate(ctx, providers.Prompt{User: "b"})
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	// Open breaker short-circuits: the adapter is not called again.
	_, err = breaker.Generate(ctx, providers.Prompt{User: "c"})
	require.Error(t, err)
	assert.Equal(t, providers.ErrModelUnavailable, providers.Classify(err))
	assert.Equal(t, int64(2), fake.callCount())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{
		text: "back up",
		errs: []error{
			providers.NewError(providers.ErrNetwork, assert.AnError),
			providers.NewError(providers.ErrNetwork, assert.AnError),
		},
	}
	breaker := NewBreakerAdapter(fake, BreakerSettings{
		ConsecutiveFailures: 2,
		OpenTimeout:         20 * time.Millisecond,
	})

	_, _ = breaker.Generate(ctx, providers.Prompt{User: "a"})
	_, _ = breaker.Generate(ctx, providers.Prompt{User: "b"})
	require.Equal(t, gobreaker.StateOpen, breaker.State())

	time.Sleep(30 * time.Millisecond)

	text, err := breaker.Generate(ctx, providers.Prompt{User: "probe"})
	require.NoError(t, err)
	assert.Equal(t, "back up", text)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestBreakerSuccessKeepsClosed(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{text: "fine"}
	breaker := NewBreakerAdapter(fake, BreakerSettings{})

	for i := 0; i < 10; i++ {
		_, err := breaker.Generate(ctx, providers.Prompt{User: "steady"})
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}
