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
// assembling the cinematification pipeline out of small, independently
// testable steps. This file defines the core interfaces; by coding against
// them, workflows stay agnostic of which concrete commands they run.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys that carry the primary data flow through a
// BaseChain.
const (
	// CtxIn is the default key for a command's primary input. The BaseChain
	// populates it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	// The BaseChain moves the value to CtxIn for the next command.
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It is the property bag for a single pipeline execution, carrying data,
// errors, and the request-scoped Go context between commands.
type Context interface {
	// SetContext sets the standard Go `context.Context`, which carries
	// cancellation signals and OpenTelemetry trace information.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go `context.Context`.
	GetContext() context.Context

	// Add stores a key-value pair. This is how commands share data with
	// each other. It returns the Context for fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error raised by a command. The key should be the
	// name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns every error collected during the execution.
	GetErrors() map[string]error

	// Get retrieves a value by its key.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors checks whether any command has recorded an error.
	HasErrors() bool
}

// Executable is anything with a single unit of execution logic.
type Executable interface {
	// Execute runs the core logic, reading inputs from the Context and
	// writing outputs back to it.
	Execute(context Context)
}

// Command is an atomic, testable unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the unique command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command stores its primary
	// output under.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command,
// so chains nest inside other chains.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// one of its commands records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
