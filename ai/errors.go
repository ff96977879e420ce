// Copyright 2026 Quellwerk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"strings"
)

// Provider failure taxonomy. Callers never surface these to end users; they
// retry or degrade per the orchestrator's failure policy.
var (
	// ErrRateLimited indicates the provider rejected the call due to rate limits.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider could not be reached or errored.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrTimeout indicates the call exceeded its deadline.
	ErrTimeout = errors.New("provider timeout")
)

// ClassifyError maps a raw transport error into the package taxonomy.
// Already-classified errors pass through unchanged; nil stays nil.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return errors.Join(ErrRateLimited, err)
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrUnavailable, err)
}

// IsRetryable reports whether a classified error may succeed on retry.
// Errors carrying a finished context are never retryable: further attempts
// cannot outlive the caller's deadline.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
