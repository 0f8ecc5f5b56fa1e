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

package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
)

// 🏃 runner executes one request under the overall request timeout.
type runner struct {
	timeout time.Duration
	now     func() time.Time
}

type result struct {
	out string
	err error
}

// run executes fn and returns as soon as either fn finishes or ctx is done.
// Work still in flight after a cancellation is abandoned; its result is
// dropped.
func (r *runner) run(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (string, error) {
	logger := zerolog.Ctx(ctx)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := r.now()
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Warn().Str("op", op).Dur("elapsed", r.now().Sub(start)).Err(ctx.Err()).Msg("request abandoned")
		return "", remote.NewError(remote.KindOf(ctx.Err()), op, ctx.Err())
	case res := <-done:
		ev := logger.Debug()
		if res.err != nil {
			ev = logger.Warn().Err(res.err).Str("kind", string(remote.KindOf(res.err)))
		}
		ev.Str("op", op).Dur("elapsed", r.now().Sub(start)).Int("bytes", len(res.out)).Msg("request finished")
		return res.out, res.err
	}
}
