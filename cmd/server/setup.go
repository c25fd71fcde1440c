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

// Package main is the cinematification API server. This file owns the
// shared application state and its construction: loading configuration,
// building the configured provider adapter, and wrapping it in the
// resilience stack before handing it to the orchestrator.
//
// Logic Flow:
//  1. GetConfig loads defaults and overlays the TOML files from configs/.
//  2. InitState resolves the default provider, reads its API key from the
//     environment, and builds the raw adapter (Gemini, OpenAI, Anthropic,
//     or the gateway proxy when one is configured).
//  3. The raw adapter is wrapped: circuit breaker first, then the caching,
//     deduplicating, rate-limited retry client.
//  4. A Gemini client, when available, also serves the embedding model for
//     cross-chunk context memory; otherwise the local hash embedder is used.
//  5. A missing API key is not fatal: the server starts offline-only and
//     every request is answered by the deterministic fallback engine.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/jaycherian/go-cinematify/internal/config"
	"github.com/jaycherian/go-cinematify/internal/core/memory"
	"github.com/jaycherian/go-cinematify/internal/core/providers"
	"github.com/jaycherian/go-cinematify/internal/core/resilience"
	"github.com/jaycherian/go-cinematify/internal/core/workflow"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config       *config.Config
	providerName string
	limiters     *resilience.Limiters
	breaker      *resilience.BreakerAdapter
	cinematifier *workflow.Cinematifier
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(config.EnvConfigRuntime) == "" {
		err = os.Setenv(config.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup env: %v\n", err)
		}
		state.config = config.Load()
	}
	return state.config
}

// newRawAdapter builds the unwrapped adapter for the named provider, plus
// the genai client when the provider is Gemini so the embedder can share it.
func newRawAdapter(ctx context.Context, name string, p config.Provider, key string) (providers.Adapter, *genai.Client, error) {
	switch providers.Kind(name) {
	case providers.KindGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, nil, err
		}
		return providers.NewGeminiAdapter(client, p.Model), client, nil
	case providers.KindOpenAI:
		client := openai.NewClient(option.WithAPIKey(key))
		return providers.NewOpenAIAdapter(client, p.Model), nil, nil
	case providers.KindAnthropic:
		return providers.NewAnthropicAdapter(key, p.Model, nil), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", name)
	}
}

// InitState builds the provider stack and the orchestrator. The server
// still starts when no provider can be configured; it just runs offline.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	// One token bucket per configured provider. The generation client and
	// the embedder draw from the same bucket when they hit the same
	// backend, so the configured RPM is a real ceiling.
	state.limiters = resilience.NewLimiters()
	for pname, p := range cfg.Providers {
		state.limiters.Set(providers.Kind(pname), resilience.NewLimiterFromRPM(p.MaxRequestsPerMinute))
	}

	name := cfg.Application.DefaultProvider
	provider, ok := cfg.Providers[name]
	if !ok {
		slog.Warn("default provider not configured, running offline", "provider", name)
		buildCinematifier(cfg, nil, config.Provider{}, nil)
		return
	}
	state.providerName = name

	var adapter providers.Adapter
	var genaiClient *genai.Client
	var err error

	if cfg.Proxy.BaseURL != "" {
		adapter = providers.NewProxyAdapter(cfg.Proxy.BaseURL, providers.Kind(cfg.Proxy.Upstream), nil)
		// The proxy fronts the default provider, so it inherits that
		// provider's quota.
		state.limiters.Set(providers.KindProxy, resilience.NewLimiterFromRPM(provider.MaxRequestsPerMinute))
	} else {
		key, keyErr := provider.APIKey()
		if keyErr != nil {
			slog.Warn("no API key for provider, running offline", "provider", name, "error", keyErr)
			buildCinematifier(cfg, nil, provider, nil)
			return
		}
		adapter, genaiClient, err = newRawAdapter(ctx, name, provider, key)
		if err != nil {
			slog.Warn("provider setup failed, running offline", "provider", name, "error", err)
			buildCinematifier(cfg, nil, provider, nil)
			return
		}
	}

	state.breaker = resilience.NewBreakerAdapter(adapter, resilience.BreakerSettings{
		ConsecutiveFailures: uint32(cfg.Breaker.ConsecutiveFailures),
		OpenTimeout:         time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second,
		HalfOpenRequests:    uint32(cfg.Breaker.HalfOpenRequests),
	})
	client := resilience.NewClient(
		state.breaker,
		state.limiters.Get(state.breaker.Kind()),
		resilience.Options{
			CacheSize:      cfg.Cache.MaxEntries,
			CacheTTL:       time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			MaxRetries:     uint64(cfg.Retry.MaxRetries),
			InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		},
	)

	var embedder memory.Embedder
	if genaiClient != nil {
		embedder = memory.NewGenAIEmbedder(
			genaiClient,
			cfg.Memory.EmbeddingModel,
			state.limiters.Get(providers.KindGemini),
		)
	}

	buildCinematifier(cfg, client, provider, embedder)
}

func buildCinematifier(cfg *config.Config, adapter providers.Adapter, provider config.Provider, embedder memory.Embedder) {
	c, err := workflow.NewCinematifier(cfg, adapter, provider, embedder)
	if err != nil {
		log.Fatalf("failed to build orchestrator: %v\n", err)
	}
	state.cinematifier = c
}

// aiAvailable reports whether requests can take the provider path.
func (s *StateManager) aiAvailable() bool {
	return s.breaker != nil
}
