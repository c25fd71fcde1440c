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

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorClass buckets provider failures so the resilience layer can decide
// whether to retry, back off, or give up.
type ErrorClass string

const (
	ErrRateLimit        ErrorClass = "rate_limit"
	ErrAuth             ErrorClass = "auth"
	ErrNetwork          ErrorClass = "network"
	ErrTimeout          ErrorClass = "timeout"
	ErrInvalidResponse  ErrorClass = "invalid_response"
	ErrModelUnavailable ErrorClass = "model_unavailable"
	ErrUnknown          ErrorClass = "unknown"
)

// Retryable reports whether a failure of this class is worth retrying.
// Auth failures and malformed responses will not get better on a retry.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ErrRateLimit, ErrNetwork, ErrTimeout, ErrModelUnavailable:
		return true
	}
	return false
}

// ProviderError wraps an underlying provider failure with its class and,
// for rate limits, the server-suggested wait.
type ProviderError struct {
	Class      ErrorClass
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError wraps err with the given class.
func NewError(class ErrorClass, err error) *ProviderError {
	return &ProviderError{Class: class, Err: err}
}

// Classify extracts the error class from an error chain. Raw errors that
// were never wrapped are classified by shape: context deadlines become
// timeouts and net errors become network failures.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetwork
	}
	return ErrUnknown
}

// ClassifyStatus maps an HTTP status code onto an error class.
func ClassifyStatus(code int) ErrorClass {
	switch {
	case code == 429:
		return ErrRateLimit
	case code == 401 || code == 403:
		return ErrAuth
	case code == 408:
		return ErrTimeout
	case code == 503:
		return ErrModelUnavailable
	case code >= 500:
		return ErrNetwork
	case code >= 400:
		return ErrInvalidResponse
	}
	return ErrUnknown
}
