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

// Package test provides utility functions and sample data to support the
// test suite: a cached test configuration and prose passages sized for the
// chunking and conversion paths.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/go-cinematify/internal/config"
)

// StateManager caches the test configuration so it is loaded once per run.
type StateManager struct {
	config *config.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to cut down on
// boilerplate in test bodies.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestPassage returns a short prose passage that exercises every
// heuristic the offline engine and the parser share: dialogue with
// attribution, a sound-effect keyword, and a shock beat.
func GetTestPassage() string {
	return `Thunder rolled across the valley as Elena reached the farmhouse door. ` +
		`"Run!" she shouted, waving toward the barn. The door slammed shut behind her. ` +
		`Suddenly the lights went out.`
}

// GetTestBook returns a two-chapter text for the book segmentation path.
// Each chapter body clears the minimum-content threshold that filters out
// stray header-like lines.
func GetTestBook() string {
	return `CHAPTER 1

The village of Arden had not seen rain for forty days, and the river that cut through its center had shrunk to a muddy thread that the children dared each other to jump.

Old Mirren watched the sky from her porch every evening, reading the clouds the way other people read letters from distant relatives.

CHAPTER 2

When the storm finally came, it came all at once, as if the sky had been holding its breath for a season and could not hold it any longer.

"Get the animals in!" Mirren shouted across the yard, and for once nobody argued with her.`
}

// SetupOS points the configuration loader at the test override file
// (configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		state.config = config.Load()
	}
	return state.config
}
