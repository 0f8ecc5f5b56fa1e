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

package tree

import (
	"fmt"
	"strings"

	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
)

const (
	header       = "Directory structure:\n"
	indent       = "  "
	emptyNote    = "(Repository is empty)"
	partialNote  = "(Listing incomplete: some directories could not be expanded)"
	truncateNote = "tree exceeds the output limit"
)

// RenderOptions controls Render.
type RenderOptions struct {
	// Root is printed as the top line, usually "owner/name".
	Root string
	// Exclude hides matching paths and everything beneath them.
	Exclude []string
	// Guard, when set, bounds the rendered size. Lines past the ceiling are
	// replaced by a truncation marker.
	Guard *guard.Guard
}

// Render prints root as an indented listing. Rendering does not modify the
// tree, so the same tree always renders to the same text.
func Render(root *Node, opts RenderOptions) string {
	var acc *guard.Accumulator
	if opts.Guard != nil {
		acc = opts.Guard.Accumulate(opts.Guard.MarkerReserve())
	}

	var (
		b       strings.Builder
		omitted int
	)
	write := func(line string) {
		if acc == nil {
			b.WriteString(line)
			return
		}
		// lines form a prefix, so nothing is written after the first refusal
		if omitted > 0 || !acc.Add(line) {
			omitted++
		}
	}

	write(header)
	write(strings.TrimSuffix(opts.Root, "/") + "/\n")

	if len(root.Children) == 0 {
		write(indent + emptyNote + "\n")
	}

	root.Walk(func(node *Node, depth int) bool {
		if Excluded(opts.Exclude, node.Path) {
			return false
		}
		name := node.Name
		if node.Type == remote.EntryDir {
			name += "/"
		}
		write(strings.Repeat(indent, depth+1) + name + "\n")
		return true
	})

	if root.Incomplete {
		write(indent + partialNote + "\n")
	}

	if acc == nil {
		return b.String()
	}
	if omitted == 0 {
		return acc.String()
	}
	return acc.String() + guard.Marker(fmt.Sprintf("%s, %d lines omitted", truncateNote, omitted), nil, opts.Guard.MarkerReserve())
}
