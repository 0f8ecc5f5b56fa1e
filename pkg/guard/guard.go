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

package guard

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultMaxOutputBytes = 100_000
	DefaultMaxWait        = time.Minute
	DefaultPaceBelow      = 100

	maxMarkerReserve = 512
)

// Mode decides what happens when the rate budget is exhausted.
type Mode string

const (
	// ModeBlock waits for the reset, up to MaxWait.
	ModeBlock Mode = "block"
	// ModeFail returns a rate limit error immediately.
	ModeFail Mode = "fail"
)

// 🛡️ Options configures a Guard.
type Options struct {
	MaxOutputBytes int
	Mode           Mode
	MaxWait        time.Duration
	// Reserve is the number of calls kept back for other consumers of the credential.
	Reserve int
	// PaceBelow is the remaining-call count under which calls are spread evenly until the reset.
	PaceBelow int

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// 🛡️ Guard enforces the output ceiling and paces remote calls against a
// shared Budget. Its only state is the budget.
type Guard struct {
	opts   Options
	budget *Budget
}

var _ remote.Pacer = (*Guard)(nil)

// New creates a guard over budget. A nil budget gets a fresh one.
func New(budget *Budget, opts Options) *Guard {
	if budget == nil {
		budget = NewBudget()
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.Mode == "" {
		opts.Mode = ModeBlock
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.PaceBelow <= 0 {
		opts.PaceBelow = DefaultPaceBelow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Guard{opts: opts, budget: budget}
}

// Budget returns the shared rate budget.
func (g *Guard) Budget() *Budget {
	return g.budget
}

// Ceiling is the maximum size of any assembled output in bytes.
func (g *Guard) Ceiling() int {
	return g.opts.MaxOutputBytes
}

// MarkerReserve is the space kept free for a truncation marker.
func (g *Guard) MarkerReserve() int {
	r := maxMarkerReserve
	if q := g.opts.MaxOutputBytes / 4; q < r {
		r = q
	}
	return r
}

// Decision is the outcome of Admit.
type Decision struct {
	Allowed bool
	// TruncateAt is the length of the largest prefix that fits when not allowed.
	TruncateAt int
}

// Admit decides whether a candidate record of the given size may follow
// used bytes of already accepted output.
func (g *Guard) Admit(used, candidate int) Decision {
	return admit(used, candidate, g.opts.MaxOutputBytes)
}

func admit(used, candidate, limit int) Decision {
	if used+candidate <= limit {
		return Decision{Allowed: true}
	}
	if used > limit {
		used = limit
	}
	return Decision{TruncateAt: used}
}

// Observe implements remote.Pacer.
func (g *Guard) Observe(rate remote.Rate) {
	g.budget.Update(rate)
}

// Throttle reports how long the next call would have to wait under the
// current budget, without reserving anything.
func (g *Guard) Throttle() (time.Duration, error) {
	var (
		now   = g.opts.Now()
		start time.Time
		err   error
	)
	g.budget.reserve(func(st *budgetState) {
		start, _, err = g.plan(*st, now)
	})
	if err != nil {
		return 0, err
	}
	if !start.After(now) {
		return 0, nil
	}
	return start.Sub(now), nil
}

// Wait implements remote.Pacer. It reserves a call slot and sleeps until it.
func (g *Guard) Wait(ctx context.Context) error {
	var (
		now   = g.opts.Now()
		start time.Time
		err   error
	)
	g.budget.reserve(func(st *budgetState) {
		var spacing time.Duration
		start, spacing, err = g.plan(*st, now)
		if err != nil {
			return
		}
		st.next = start.Add(spacing)
		if st.known && st.reset.After(now) && st.remaining > 0 {
			st.remaining--
		}
	})
	if err != nil {
		return err
	}

	if d := start.Sub(now); d > 0 {
		zerolog.Ctx(ctx).Debug().Dur("wait", d).Msg("pacing remote call")
		if err := g.opts.Sleep(ctx, d); err != nil {
			return remote.NewError(remote.KindCanceled, "wait for rate limit", err)
		}
	}
	return nil
}

// plan computes when the next call may start and the spacing to keep after it.
func (g *Guard) plan(st budgetState, now time.Time) (time.Time, time.Duration, error) {
	if !st.known || !st.reset.After(now) {
		return now, 0, nil
	}

	untilReset := st.reset.Sub(now)
	available := st.remaining - g.opts.Reserve
	if available <= 0 {
		rerr := remote.NewError(remote.KindRateLimit, "wait for rate limit", nil)
		rerr.ResetAt = st.reset
		if g.opts.Mode == ModeFail {
			rerr.Err = errors.New("rate limit exhausted")
			return now, 0, rerr
		}
		if untilReset > g.opts.MaxWait {
			rerr.Err = errors.Errorf("rate limit resets in %s, more than the %s wait cap", untilReset.Round(time.Second), g.opts.MaxWait)
			return now, 0, rerr
		}
		return st.reset, 0, nil
	}

	start := now
	if st.next.After(start) {
		start = st.next
	}
	if available > g.opts.PaceBelow {
		return start, 0, nil
	}
	return start, untilReset / time.Duration(available), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
