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
	"sync"
	"time"

	"github.com/walteh/secondbrain/pkg/remote"
)

// 💰 Budget is the process-wide rate limit state of one credential. It starts
// unknown and is reinitialized from the provider's headers on every response.
type Budget struct {
	mu        sync.Mutex
	known     bool
	limit     int
	remaining int
	reset     time.Time
	next      time.Time // earliest time the next call may start
}

// NewBudget returns an empty budget. Nothing is paced until the first response.
func NewBudget() *Budget {
	return &Budget{}
}

// Update overwrites the budget with freshly observed headers.
func (b *Budget) Update(rate remote.Rate) {
	if rate.Limit <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.known = true
	b.limit = rate.Limit
	b.remaining = rate.Remaining
	b.reset = rate.Reset
}

// Snapshot returns the current budget. ok is false until headers were seen.
func (b *Budget) Snapshot() (rate remote.Rate, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return remote.Rate{Limit: b.limit, Remaining: b.remaining, Reset: b.reset}, b.known
}

// reserve runs fn with the lock held so the read-modify-write of a call slot
// is serialized across concurrent fetches.
func (b *Budget) reserve(fn func(st *budgetState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := budgetState{
		known:     b.known,
		remaining: b.remaining,
		reset:     b.reset,
		next:      b.next,
	}
	fn(&st)
	b.remaining = st.remaining
	b.next = st.next
}

type budgetState struct {
	known     bool
	remaining int
	reset     time.Time
	next      time.Time
}
