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

// Package remotetest provides an in-memory remote.Provider for tests.
package remotetest

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// Provider serves a fixed repository snapshot from memory. Files maps
// repository paths to their bytes; directories are implied by the paths.
type Provider struct {
	Files         map[string][]byte
	DefaultBranch string
	Issues        map[int]remote.IssueContext
	Diffs         map[string]remote.DiffResult
	PullRequests  map[int]remote.DiffResult

	// Truncated is reported by recursive listings.
	Truncated bool

	// Fail maps a path (or "issue", "diff") to an error returned for it.
	Fail map[string]error

	// Hook runs before every call; tests use it to block or count.
	Hook func(ctx context.Context, op, path string) error

	calls atomic.Int32

	mu       sync.Mutex
	requests []string
}

var _ remote.Provider = (*Provider)(nil)

// New returns a provider serving files on branch "main".
func New(files map[string]string) *Provider {
	p := &Provider{
		Files:         map[string][]byte{},
		DefaultBranch: "main",
		Issues:        map[int]remote.IssueContext{},
		Diffs:         map[string]remote.DiffResult{},
		PullRequests:  map[int]remote.DiffResult{},
		Fail:          map[string]error{},
	}
	for k, v := range files {
		p.Files[k] = []byte(v)
	}
	return p
}

// Calls is the number of provider calls made so far.
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}

// Requests lists "op path" for every call in the order they were made.
func (p *Provider) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

func (p *Provider) enter(ctx context.Context, op, key string) error {
	p.calls.Add(1)
	p.mu.Lock()
	p.requests = append(p.requests, op+" "+key)
	p.mu.Unlock()

	if p.Hook != nil {
		if err := p.Hook(ctx, op, key); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return remote.NewError(remote.KindCanceled, op, err)
	}
	if err, ok := p.Fail[key]; ok {
		return err
	}
	return nil
}

func (p *Provider) Name() string {
	return "fake"
}

func (p *Provider) ResolveRef(ctx context.Context, ref remote.RepoRef) (remote.RepoRef, error) {
	if ref.Ref != "" {
		return ref, nil
	}
	return ref.WithRef(p.DefaultBranch), nil
}

func (p *Provider) listTree(ctx context.Context) ([]remote.TreeEntry, bool, error) {
	if err := p.enter(ctx, "list_tree", ""); err != nil {
		return nil, false, err
	}

	var entries []remote.TreeEntry
	for _, dir := range p.dirs() {
		entries = append(entries, remote.TreeEntry{Path: dir, Type: remote.EntryDir})
	}
	for name, data := range p.Files {
		entries = append(entries, remote.TreeEntry{Path: name, Type: remote.EntryFile, Size: int64(len(data))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, p.Truncated, nil
}

func (p *Provider) ListEntries(ctx context.Context, ref remote.RepoRef, dir string) ([]remote.TreeEntry, error) {
	dir = strings.Trim(dir, "/")
	if err := p.enter(ctx, "list_entries", dir); err != nil {
		return nil, err
	}

	if data, ok := p.Files[dir]; ok && dir != "" {
		return []remote.TreeEntry{{Path: dir, Type: remote.EntryFile, Size: int64(len(data))}}, nil
	}

	var entries []remote.TreeEntry
	found := dir == ""
	for _, d := range p.dirs() {
		if d == dir {
			found = true
		}
		if parent(d) == dir {
			entries = append(entries, remote.TreeEntry{Path: d, Type: remote.EntryDir})
		}
	}
	for name, data := range p.Files {
		if parent(name) == dir {
			found = true
			entries = append(entries, remote.TreeEntry{Path: name, Type: remote.EntryFile, Size: int64(len(data))})
		}
	}
	if !found {
		return nil, remote.NewError(remote.KindNotFound, "list entries", errors.New("no such directory")).WithPath(dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (p *Provider) GetBlob(ctx context.Context, ref remote.RepoRef, name string) (remote.FileBlob, error) {
	name = strings.Trim(name, "/")
	if err := p.enter(ctx, "get_blob", name); err != nil {
		return remote.FileBlob{}, err
	}

	data, ok := p.Files[name]
	if ok {
		return remote.NewBlob(name, "", data), nil
	}
	for _, d := range p.dirs() {
		if d == name {
			return remote.FileBlob{}, remote.NewError(remote.KindInvalidInput, "get blob", remote.ErrIsDirectory).WithPath(name)
		}
	}
	return remote.FileBlob{}, remote.NewError(remote.KindNotFound, "get blob", errors.New("no such file")).WithPath(name)
}

func (p *Provider) GetIssue(ctx context.Context, ref remote.RepoRef, number int) (remote.IssueContext, error) {
	if err := p.enter(ctx, "get_issue", "issue"); err != nil {
		return remote.IssueContext{}, err
	}
	issue, ok := p.Issues[number]
	if !ok {
		return remote.IssueContext{}, remote.NewError(remote.KindNotFound, "get issue", errors.Errorf("no issue #%d", number))
	}
	return issue, nil
}

func (p *Provider) GetDiff(ctx context.Context, ref remote.RepoRef, base, head string) (remote.DiffResult, error) {
	if err := p.enter(ctx, "get_diff", "diff"); err != nil {
		return remote.DiffResult{}, err
	}
	diff, ok := p.Diffs[base+"..."+head]
	if !ok {
		return remote.DiffResult{}, remote.NewError(remote.KindNotFound, "compare commits", errors.Errorf("no comparison %s...%s", base, head))
	}
	return diff, nil
}

func (p *Provider) GetPullRequestDiff(ctx context.Context, ref remote.RepoRef, number int) (remote.DiffResult, error) {
	if err := p.enter(ctx, "get_pull_request_diff", "diff"); err != nil {
		return remote.DiffResult{}, err
	}
	diff, ok := p.PullRequests[number]
	if !ok {
		return remote.DiffResult{}, remote.NewError(remote.KindNotFound, "get pull request", errors.Errorf("no pull request #%d", number))
	}
	return diff, nil
}

// dirs returns every directory implied by the file paths, sorted.
func (p *Provider) dirs() []string {
	set := map[string]bool{}
	for name := range p.Files {
		for d := parent(name); d != ""; d = parent(d) {
			set[d] = true
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func parent(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// RecursiveProvider is a Provider that also lists whole trees in one call.
type RecursiveProvider struct {
	*Provider
}

var _ remote.TreeLister = RecursiveProvider{}

// Recursive wraps p so that it implements remote.TreeLister.
func Recursive(p *Provider) RecursiveProvider {
	return RecursiveProvider{Provider: p}
}

func (r RecursiveProvider) ListTree(ctx context.Context, ref remote.RepoRef) ([]remote.TreeEntry, bool, error) {
	return r.listTree(ctx)
}
