// Copyright 2025 walteh LLC
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

package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind classifies failures so callers can react without parsing messages.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindRateLimit         Kind = "rate_limit"
	KindNetwork           Kind = "network"
	KindInvalidInput      Kind = "invalid_input"
	KindDataInconsistency Kind = "data_inconsistency"
	KindCanceled          Kind = "canceled"
)

var (
	ErrAuth              = &Error{Kind: KindAuth}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrRateLimited       = &Error{Kind: KindRateLimit}
	ErrNetwork           = &Error{Kind: KindNetwork}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrDataInconsistency = &Error{Kind: KindDataInconsistency}
	ErrCanceled          = &Error{Kind: KindCanceled}

	// ErrIsDirectory is returned by GetBlob when the path names a directory.
	ErrIsDirectory = errors.Base("path is a directory")
)

// ❌ Error is the typed failure returned across the engine.
type Error struct {
	Kind Kind
	Op   string
	Path string

	// ResetAt is set on rate limit failures when the provider reported it.
	ResetAt time.Time

	Err error
}

// NewError wraps err with a kind and the operation that failed.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath records the repository path the failure concerns.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if !e.ResetAt.IsZero() {
		fmt.Fprintf(&b, " (resets at %s)", e.ResetAt.UTC().Format(time.RFC3339))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// RetryAfter is the time left until the rate limit resets, if known.
func (e *Error) RetryAfter(now time.Time) time.Duration {
	if e.ResetAt.IsZero() || !e.ResetAt.After(now) {
		return 0
	}
	return e.ResetAt.Sub(now)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindUnknown
}

// IsRetryable reports whether err is a transient failure worth another attempt.
func IsRetryable(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsFatal reports whether err must abort a whole request rather than degrade it.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindAuth, KindCanceled:
		return true
	default:
		return false
	}
}
