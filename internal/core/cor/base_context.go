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

// Package cor (Chain of Responsibility) provides the building blocks for
// assembling pipelines. This file defines `BaseContext`, the default
// implementation of the `Context` interface: a property bag passed through
// the whole chain so each command can read its inputs, do its work, and
// write results back for the commands after it.
package cor

import (
	"context"
)

// BaseContext is the default implementation of the Context interface. It
// holds the shared state for one pipeline execution.
type BaseContext struct {
	data    map[string]interface{} // Arbitrary key-value data shared between commands.
	errors  map[string]error       // Errors keyed by the command name that produced them.
	context context.Context        // Go context for cancellation and request-scoped values.
}

// NewBaseContext returns a new, empty context object.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// SetContext sets the underlying Go context. The BaseChain uses this to
// scope OpenTelemetry spans to the currently running command.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Add stores a key-value pair and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddError records an error under the name of the command that raised it.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns every error collected during the execution.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value by its key, or nil when the key does not exist.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors checks whether any command has recorded an error.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
