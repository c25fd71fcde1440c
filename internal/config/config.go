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

// Package config defines the data structures for application configuration,
// loaded from TOML files. It centralizes every configurable parameter of the
// cinematification pipeline: chunking, response caching, retries, circuit
// breaking, context memory, the configured AI providers, and the prompt
// templates sent to them.
//
// Structs:
//   - Application: General application settings including the chunk budget.
//   - Cache: Response cache sizing and freshness.
//   - Retry: Retry counts and backoff windows for provider calls.
//   - Breaker: Circuit-breaker thresholds.
//   - Memory: Embedding model and retrieval fan-in for cross-chunk context.
//   - Provider: One AI backend's model, credentials, and quota.
//   - Proxy: The optional AI gateway settings.
//   - PromptTemplates: Text templates for the prompts sent to the models.
//   - Config: The top-level struct aggregating all of the above.
package config

// Application holds general application settings.
type Application struct {
	Name            string `toml:"name"`             // The name of the application.
	ChunkBudget     int    `toml:"chunk_budget"`     // Target characters per AI chunk.
	DefaultProvider string `toml:"default_provider"` // Which configured provider the server uses.
}

// Cache configures the provider response cache.
type Cache struct {
	MaxEntries int `toml:"max_entries"` // Entry cap for the LRU.
	TTLMinutes int `toml:"ttl_minutes"` // Minutes a cached response stays fresh.
}

// Retry configures the retry policy around provider calls.
type Retry struct {
	MaxRetries       int `toml:"max_retries"`        // Attempts beyond the first call.
	InitialBackoffMs int `toml:"initial_backoff_ms"` // First backoff interval in milliseconds.
	MaxBackoffMs     int `toml:"max_backoff_ms"`     // Backoff interval ceiling in milliseconds.
}

// Breaker configures the per-provider circuit breaker.
type Breaker struct {
	ConsecutiveFailures int `toml:"consecutive_failures"` // Failures in a row before the breaker opens.
	OpenTimeoutSeconds  int `toml:"open_timeout_seconds"` // Seconds the breaker stays open before probing.
	HalfOpenRequests    int `toml:"half_open_requests"`   // Probe requests admitted while half-open.
}

// Memory configures the cross-chunk context memory.
type Memory struct {
	EmbeddingModel string `toml:"embedding_model"` // The embedding model name, e.g. "text-embedding-004".
	TopK           int    `toml:"top_k"`           // How many prior chunk summaries a retrieval returns.
}

// Provider holds one AI backend's settings. The API key is read from the
// environment variable named by KeyEnv so keys never live in config files.
type Provider struct {
	Model                string  `toml:"model"`                   // The model name to request.
	KeyEnv               string  `toml:"api_key_env"`             // Environment variable holding the API key.
	MaxRequestsPerMinute int     `toml:"max_requests_per_minute"` // Requests-per-minute quota; 0 means unmetered.
	Temperature          float32 `toml:"temperature"`             // Sampling temperature.
	MaxTokens            int     `toml:"max_tokens"`              // Output token cap; 0 uses the provider default.
	Streaming            bool    `toml:"streaming"`               // Prefer the streaming path when available.
}

// Proxy holds the optional AI gateway settings used when requests should
// not go to providers directly.
type Proxy struct {
	BaseURL  string `toml:"base_url"` // Gateway base URL, empty disables the proxy.
	Upstream string `toml:"upstream"` // Which provider the gateway forwards to.
}

// PromptTemplates holds the templates for the prompts sent to the models.
// Both are Go text templates; see workflow.PromptData for the fields.
type PromptTemplates struct {
	System string `toml:"system"` // The system prompt carrying the output grammar and example.
	Chunk  string `toml:"chunk"`  // The per-chunk user prompt.
}

// Config is the root container for the application configuration, loaded
// from TOML files.
type Config struct {
	Application     Application         `toml:"application"`      // General application settings.
	Cache           Cache               `toml:"cache"`            // Response cache settings.
	Retry           Retry               `toml:"retry"`            // Retry policy settings.
	Breaker         Breaker             `toml:"breaker"`          // Circuit breaker settings.
	Memory          Memory              `toml:"memory"`           // Context memory settings.
	Providers       map[string]Provider `toml:"providers"`        // AI backends keyed by provider name (e.g. "gemini").
	Proxy           Proxy               `toml:"proxy"`            // Optional AI gateway settings.
	PromptTemplates PromptTemplates     `toml:"prompt_templates"` // Prompt templates.
}

// NewConfig creates a new Config with its map fields initialized so the
// TOML decoder can populate them without nil map panics.
func NewConfig() *Config {
	return &Config{Providers: make(map[string]Provider)}
}

// Default returns a fully usable configuration requiring no files on disk.
// File-based configuration overrides these values; tests and the offline
// path run on the defaults alone.
func Default() *Config {
	cfg := NewConfig()
	cfg.Application = Application{Name: "cinematify", ChunkBudget: 3500, DefaultProvider: "gemini"}
	cfg.Cache = Cache{MaxEntries: 50, TTLMinutes: 30}
	cfg.Retry = Retry{MaxRetries: 3, InitialBackoffMs: 500, MaxBackoffMs: 30000}
	cfg.Breaker = Breaker{ConsecutiveFailures: 5, OpenTimeoutSeconds: 30, HalfOpenRequests: 1}
	cfg.Memory = Memory{EmbeddingModel: "text-embedding-004", TopK: 2}
	cfg.Providers["gemini"] = Provider{
		Model:                "gemini-2.0-flash",
		KeyEnv:               "GEMINI_API_KEY",
		MaxRequestsPerMinute: 60,
		Temperature:          0.7,
		Streaming:            true,
	}
	cfg.Providers["openai"] = Provider{
		Model:                "gpt-4o-mini",
		KeyEnv:               "OPENAI_API_KEY",
		MaxRequestsPerMinute: 60,
		Temperature:          0.7,
		Streaming:            true,
	}
	cfg.Providers["anthropic"] = Provider{
		Model:                "claude-sonnet-4-20250514",
		KeyEnv:               "ANTHROPIC_API_KEY",
		MaxRequestsPerMinute: 50,
		Temperature:          0.7,
		MaxTokens:            4096,
	}
	cfg.PromptTemplates = PromptTemplates{
		System: DefaultSystemTemplate,
		Chunk:  DefaultChunkTemplate,
	}
	return cfg
}

// DefaultSystemTemplate instructs the model to emit the plain-text block
// grammar the parser understands. The example script and example output
// are injected by the prompt builder.
const DefaultSystemTemplate = `You are a cinematic adaptation engine. Rewrite narrative prose as a screenplay-style script using only these line forms, each on its own line with a blank line between them:

- Action lines: plain prose narration.
- Dialogue: the spoken words wrapped in double quotes, optionally followed by attribution.
- Inner thoughts: wrapped in *asterisks*.
- Sound effects: SFX: NAME
- Dramatic beats: BEAT, PAUSE, LONG PAUSE, SILENCE, TENSION, or RELEASE alone on a line.
- Transitions: CUT TO:, FADE IN, FADE OUT, FADE TO BLACK, DISSOLVE TO:, SMASH CUT:, MATCH CUT:, JUMP CUT:, WIPE TO:, IRIS IN, IRIS OUT.
- Camera directions: (CLOSE ON: subject) style ALL-CAPS parentheticals.
- Optional inline tags on any line: [EMOTION: name] and [TENSION: 0-100].

Finish the script with three tag lines:
[GENRE: the genre]
[TONE: comma-separated tones]
[SUMMARY: one or two sentences summarizing this passage for continuity]

Example input and output:
{{.Example}}

Produce only the script. No markdown, no commentary.`

// DefaultChunkTemplate is the per-chunk user prompt.
const DefaultChunkTemplate = `{{if .Previous}}Summary of the preceding passage:
{{.Previous}}

{{end}}{{if .Context}}Continuity from earlier passages:
{{.Context}}

{{end}}Adapt this passage:

{{.Chunk}}`
