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

// Package engine exposes the four retrieval operations and the registry
// that maps tool names onto them.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/walteh/secondbrain/pkg/contents"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/packager"
	"github.com/walteh/secondbrain/pkg/remote"
	"github.com/walteh/secondbrain/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

// Options configures an Engine.
type Options struct {
	Concurrency int
	// Exclude lists doublestar patterns hidden from trees and directory contents.
	Exclude []string
	// RequestTimeout bounds each operation as a whole. Zero means no limit.
	RequestTimeout time.Duration
	// DefaultTreeDepth applies when a tree request names no depth. Negative
	// means unlimited.
	DefaultTreeDepth int
	// Observer is told about every path a contents request handles.
	Observer func(contents.Event)

	Now func() time.Time
}

// 🧠 Engine answers tree, contents, issue and diff requests against one
// provider, bounded by one guard.
type Engine struct {
	provider remote.Provider
	guard    *guard.Guard
	builder  *tree.Builder
	fetcher  *contents.Fetcher
	runner   *runner
	opts     Options
	registry *Registry
}

// New creates an engine. The guard's budget is shared by every request.
func New(provider remote.Provider, g *guard.Guard, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = tree.DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		provider: provider,
		guard:    g,
		builder:  tree.NewBuilder(provider, opts.Concurrency),
		fetcher: contents.NewFetcher(provider, g, contents.Options{
			Concurrency: opts.Concurrency,
			Exclude:     opts.Exclude,
			Observer:    opts.Observer,
		}),
		runner: &runner{timeout: opts.RequestTimeout, now: opts.Now},
		opts:   opts,
	}
	e.registry = defaultRegistry(e)
	return e
}

// Registry returns the tools and prompts this engine serves.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// TreeRequest selects how deep a tree goes. FullDepth wins over MaxDepth;
// with neither set the configured default applies.
type TreeRequest struct {
	MaxDepth  *int
	FullDepth bool
}

// GetTreeDirectory renders the repository layout.
func (e *Engine) GetTreeDirectory(ctx context.Context, ref remote.RepoRef, req TreeRequest) (string, error) {
	const op = "get tree directory"
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if req.MaxDepth != nil && *req.MaxDepth < 0 && !req.FullDepth {
		return "", remote.NewError(remote.KindInvalidInput, op, errors.Errorf("max depth must not be negative, got %d", *req.MaxDepth))
	}

	var depth *int
	switch {
	case req.FullDepth:
	case req.MaxDepth != nil:
		depth = req.MaxDepth
	case e.opts.DefaultTreeDepth >= 0:
		d := e.opts.DefaultTreeDepth
		depth = &d
	}

	return e.runner.run(ctx, op, func(ctx context.Context) (string, error) {
		root, err := e.builder.BuildTree(ctx, ref, depth)
		if err != nil {
			return "", errors.Errorf("building tree for %s: %w", ref, err)
		}
		return tree.Render(root, tree.RenderOptions{
			Root:    ref.FullName(),
			Exclude: e.opts.Exclude,
			Guard:   e.guard,
		}), nil
	})
}

// GetRepoContents returns a file, or every file under a directory, as text.
func (e *Engine) GetRepoContents(ctx context.Context, ref remote.RepoRef, path string) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	return e.runner.run(ctx, "get repo contents", func(ctx context.Context) (string, error) {
		return e.fetcher.GetContents(ctx, ref, path)
	})
}

// GetIssueContext returns an issue with its comments.
func (e *Engine) GetIssueContext(ctx context.Context, ref remote.RepoRef, number int) (string, error) {
	const op = "get issue context"
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if number <= 0 {
		return "", remote.NewError(remote.KindInvalidInput, op, errors.Errorf("issue number must be a positive integer, got %d", number))
	}
	return e.runner.run(ctx, op, func(ctx context.Context) (string, error) {
		issue, err := e.provider.GetIssue(ctx, ref, number)
		if err != nil {
			return "", errors.Errorf("fetching issue #%d: %w", number, err)
		}
		return packager.FormatIssue(issue, e.guard), nil
	})
}

// DiffRequest names either two refs or a pull request.
type DiffRequest struct {
	Base        string
	Head        string
	PullRequest int
}

// GetCodeDiff returns the per-file changes between two refs, or those of a
// pull request when PullRequest is set.
func (e *Engine) GetCodeDiff(ctx context.Context, ref remote.RepoRef, req DiffRequest) (string, error) {
	const op = "get code diff"
	if err := ref.Validate(); err != nil {
		return "", err
	}
	req.Base = strings.TrimSpace(req.Base)
	req.Head = strings.TrimSpace(req.Head)

	switch {
	case req.PullRequest < 0:
		return "", remote.NewError(remote.KindInvalidInput, op, errors.Errorf("pull request number must be positive, got %d", req.PullRequest))
	case req.PullRequest == 0 && (req.Base == "" || req.Head == ""):
		return "", remote.NewError(remote.KindInvalidInput, op, errors.New("either a pull request number or both base and head are required"))
	}

	return e.runner.run(ctx, op, func(ctx context.Context) (string, error) {
		var (
			diff remote.DiffResult
			err  error
		)
		if req.PullRequest > 0 {
			diff, err = e.provider.GetPullRequestDiff(ctx, ref, req.PullRequest)
		} else {
			diff, err = e.provider.GetDiff(ctx, ref, req.Base, req.Head)
		}
		if err != nil {
			return "", errors.Errorf("fetching diff: %w", err)
		}
		return packager.FormatDiff(diff, e.guard), nil
	})
}
