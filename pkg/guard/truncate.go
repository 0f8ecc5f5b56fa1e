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
	"fmt"
	"strings"
	"unicode/utf8"
)

// ✂️ Accumulator assembles output from whole records and never lets it grow
// past its limit. A record that does not fit is refused whole; callers that
// need a strict prefix stop at the first refusal.
type Accumulator struct {
	limit   int
	b       strings.Builder
	kept    int
	refused int
}

// Accumulate starts an output that leaves reserve bytes free for a marker.
func (g *Guard) Accumulate(reserve int) *Accumulator {
	limit := g.opts.MaxOutputBytes - reserve
	if limit < 0 {
		limit = 0
	}
	return &Accumulator{limit: limit}
}

// Add appends record if it fits and reports whether it was kept.
func (a *Accumulator) Add(record string) bool {
	if !a.Fits(len(record)) {
		a.refused++
		return false
	}
	a.b.WriteString(record)
	a.kept++
	return true
}

// Fits reports whether a record of n bytes would be accepted.
func (a *Accumulator) Fits(n int) bool {
	return admit(a.b.Len(), n, a.limit).Allowed
}

// Remaining is the number of bytes still available.
func (a *Accumulator) Remaining() int {
	if r := a.limit - a.b.Len(); r > 0 {
		return r
	}
	return 0
}

// Kept is the number of records accepted.
func (a *Accumulator) Kept() int {
	return a.kept
}

// Refused is the number of records that did not fit.
func (a *Accumulator) Refused() int {
	return a.refused
}

func (a *Accumulator) Len() int {
	return a.b.Len()
}

func (a *Accumulator) String() string {
	return a.b.String()
}

// Marker renders a truncation marker listing omitted items. It never grows
// beyond budget bytes except for the title line itself; items that do not
// fit are counted instead of listed.
func Marker(title string, items []string, budget int) string {
	var b strings.Builder
	b.WriteString("[truncated: ")
	b.WriteString(title)
	b.WriteString("]\n")

	for i, item := range items {
		line := "- " + item + "\n"
		rest := len(items) - i - 1
		tail := 0
		if rest > 0 {
			tail = len(moreLine(rest))
		}
		if b.Len()+len(line)+tail > budget {
			b.WriteString(moreLine(len(items) - i))
			return b.String()
		}
		b.WriteString(line)
	}
	return b.String()
}

func moreLine(n int) string {
	return fmt.Sprintf("- ... and %d more\n", n)
}

// CutAtLine returns the longest prefix of s no longer than limit that ends
// at a line break, or at a rune boundary when no line break fits.
func CutAtLine(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	prefix := s[:limit]
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		return prefix[:i+1]
	}
	// drop a rune split by the cut
	for i := 0; i < utf8.UTFMax && len(prefix) > 0; i++ {
		if r, size := utf8.DecodeLastRuneInString(prefix); r != utf8.RuneError || size > 1 {
			break
		}
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}
