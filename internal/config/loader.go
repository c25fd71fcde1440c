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

// This file implements hierarchical configuration loading. A base file
// (".env.toml") establishes the shared settings and an environment-specific
// file (".env.<runtime>.toml") overrides them, with the directory and
// runtime selected through environment variables. Values not present in
// either file keep their programmatic defaults.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"               // Base name for configuration files.
	ConfigFileExtension = ".toml"              // Extension for configuration files.
	ConfigSeparator     = "."                  // Separator in override file names (".env.local.toml").
	EnvConfigFilePrefix = "CINE_CONFIG_PREFIX" // Environment variable naming the config directory.
	EnvConfigRuntime    = "CINE_RUNTIME"       // Environment variable naming the runtime ("local", "test", "prod").
)

// fileExists checks whether a file exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// Load returns the default configuration overlaid with the base TOML file
// and then the runtime-specific TOML file, when those files exist. The
// config directory comes from CINE_CONFIG_PREFIX and the runtime from
// CINE_RUNTIME, defaulting to "local".
func Load() *Config {
	cfg := Default()
	LoadInto(cfg)
	return cfg
}

// LoadInto decodes the configured TOML files over an existing config.
func LoadInto(cfg *Config) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}

	runtime := os.Getenv(EnvConfigRuntime)
	if runtime == "" {
		runtime = "local"
	}

	baseFile := prefix + ConfigFileBaseName + ConfigFileExtension
	if fileExists(baseFile) {
		if _, err := toml.DecodeFile(baseFile, cfg); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseFile, err)
		}
	}

	envFile := prefix + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension
	if fileExists(envFile) {
		if _, err := toml.DecodeFile(envFile, cfg); err != nil {
			log.Fatalf("failed to decode environment configuration file %s with error: %s", envFile, err)
		}
	}
}

// APIKey resolves a provider's API key from the environment variable named
// in its configuration.
func (p Provider) APIKey() (string, error) {
	if p.KeyEnv == "" {
		return "", fmt.Errorf("provider has no api_key_env configured")
	}
	key := os.Getenv(p.KeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", p.KeyEnv)
	}
	return key, nil
}
