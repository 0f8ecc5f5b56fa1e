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
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// 🌳 Node is one directory or file of a reconstructed repository tree.
// Children of a directory have unique names and, after Sort, are ordered
// directories first then files, each by name.
type Node struct {
	Name     string
	Type     remote.EntryType
	Path     string
	Size     int64
	Children []*Node

	// Incomplete is set on the root when some directories could not be listed.
	Incomplete bool

	index map[string]*Node
}

// NewRoot returns an empty repository root.
func NewRoot() *Node {
	return &Node{Type: remote.EntryDir}
}

// Build reconstructs a tree from a flat listing. Entries that contradict
// earlier ones are skipped and reported.
func Build(entries []remote.TreeEntry) (*Node, []error) {
	root := NewRoot()
	var errs []error
	for _, e := range entries {
		if err := root.Insert(e); err != nil {
			errs = append(errs, err)
		}
	}
	root.Sort()
	return root, errs
}

// Insert adds an entry below n, creating intermediate directories. A path
// segment that is a file in one entry and a directory in another is a data
// inconsistency and leaves the tree unchanged.
func (n *Node) Insert(e remote.TreeEntry) error {
	p := strings.Trim(e.Path, "/")
	if p == "" {
		return remote.NewError(remote.KindDataInconsistency, "insert tree entry", errors.New("empty path"))
	}

	segs := strings.Split(p, "/")
	for _, seg := range segs {
		if seg == "" || seg == "." || seg == ".." {
			return remote.NewError(remote.KindDataInconsistency, "insert tree entry", errors.Errorf("invalid path segment %q", seg)).WithPath(e.Path)
		}
	}

	// check the whole path first so a collision never leaves half an insert behind
	cur := n
	for i, seg := range segs {
		want := remote.EntryDir
		if i == len(segs)-1 {
			want = e.Type
		}
		child := cur.index[seg]
		if child == nil {
			break
		}
		if child.Type != want {
			return remote.NewError(remote.KindDataInconsistency, "insert tree entry",
				errors.Errorf("%s is listed as both a file and a directory", child.Path)).WithPath(e.Path)
		}
		cur = child
	}

	cur = n
	for i, seg := range segs {
		last := i == len(segs)-1
		child := cur.index[seg]
		if child == nil {
			child = &Node{Name: seg, Type: remote.EntryDir, Path: strings.Join(segs[:i+1], "/")}
			if last {
				child.Type = e.Type
			}
			cur.add(child)
		}
		if last && child.Type == remote.EntryFile {
			child.Size = e.Size
		}
		cur = child
	}
	return nil
}

func (n *Node) add(child *Node) {
	if n.index == nil {
		n.index = map[string]*Node{}
	}
	n.index[child.Name] = child
	n.Children = append(n.Children, child)
}

// Sort orders every directory's children canonically.
func (n *Node) Sort() {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sort.Slice(cur.Children, func(i, j int) bool {
			return less(cur.Children[i], cur.Children[j])
		})
		for _, c := range cur.Children {
			if c.Type == remote.EntryDir {
				stack = append(stack, c)
			}
		}
	}
}

func less(a, b *Node) bool {
	if a.Type != b.Type {
		return a.Type == remote.EntryDir
	}
	return a.Name < b.Name
}

// Walk visits every node below n in canonical pre-order. The root's
// children are at depth 0. Returning false from fn skips the node's
// children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}

	stack := make([]frame, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{n.Children[i], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Files returns every file below n in canonical order, skipping paths
// matched by exclude.
func (n *Node) Files(exclude []string) []*Node {
	var out []*Node
	n.Walk(func(node *Node, _ int) bool {
		if Excluded(exclude, node.Path) {
			return false
		}
		if node.Type == remote.EntryFile {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Find returns the node at path, matching exactly.
func (n *Node) Find(path string) *Node {
	path = strings.Trim(path, "/")
	if path == "" {
		return n
	}
	cur := n
	for _, seg := range strings.Split(path, "/") {
		cur = cur.index[seg]
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Resolve finds path by exact match first. Otherwise it returns the
// lexically first node whose path matches case-insensitively.
func (n *Node) Resolve(path string) *Node {
	if node := n.Find(path); node != nil {
		return node
	}

	path = strings.Trim(path, "/")
	var best *Node
	n.Walk(func(node *Node, _ int) bool {
		if strings.EqualFold(node.Path, path) && (best == nil || node.Path < best.Path) {
			best = node
		}
		// only descend into directories that can still prefix a match
		return len(node.Path) < len(path) && strings.EqualFold(node.Path+"/", path[:len(node.Path)+1])
	})
	return best
}

// Len is the number of nodes below n.
func (n *Node) Len() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Excluded reports whether path matches any of the doublestar patterns.
// A directory pattern excludes everything beneath it.
func Excluded(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/**", path); ok {
			return true
		}
	}
	return false
}
