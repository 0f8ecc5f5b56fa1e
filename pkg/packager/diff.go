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

package packager

import (
	"fmt"
	"strings"

	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
)

const noPatch = "(no textual patch available)"

// FormatDiff renders one section per changed file in provider order. Patch
// text is copied verbatim. Sections that do not fit under the ceiling are
// left out whole and listed in a marker.
func FormatDiff(diff remote.DiffResult, g *guard.Guard) string {
	reserve := g.MarkerReserve()
	acc := g.Accumulate(reserve)

	var head strings.Builder
	if diff.PullRequest > 0 {
		fmt.Fprintf(&head, "Pull request #%d: %s...%s\n", diff.PullRequest, diff.Base, diff.Head)
	} else {
		fmt.Fprintf(&head, "Diff: %s...%s\n", diff.Base, diff.Head)
	}
	fmt.Fprintf(&head, "Files changed: %d\n\n", len(diff.Files))
	acc.Add(head.String())

	if len(diff.Files) == 0 {
		acc.Add("(no changes)\n")
		return acc.String()
	}

	var omitted []string
	for _, f := range diff.Files {
		if !acc.Add(DiffSection(f)) {
			omitted = append(omitted, f.Path)
		}
	}

	if len(omitted) == 0 {
		return acc.String()
	}
	title := fmt.Sprintf("output limit reached, %d of %d files omitted", len(omitted), len(diff.Files))
	return acc.String() + guard.Marker(title, omitted, reserve)
}

// DiffSection renders one file change.
func DiffSection(f remote.FileDiff) string {
	var b strings.Builder
	b.WriteString("=== ")
	b.WriteString(f.Path)
	b.WriteString(" (")
	b.WriteString(string(f.Status))
	if f.Status == remote.StatusRenamed && f.PreviousPath != "" {
		b.WriteString(" from ")
		b.WriteString(f.PreviousPath)
	}
	fmt.Fprintf(&b, ", +%d -%d) ===\n", f.Additions, f.Deletions)

	if f.Patch == "" {
		b.WriteString(noPatch)
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(f.Patch)
	if !strings.HasSuffix(f.Patch, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
