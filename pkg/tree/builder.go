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
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 6

// 🏗️ Builder reconstructs repository trees from a provider.
type Builder struct {
	provider    remote.Provider
	concurrency int
}

// NewBuilder creates a builder issuing at most concurrency listing calls at once.
func NewBuilder(provider remote.Provider, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Builder{provider: provider, concurrency: concurrency}
}

// BuildTree lists the repository at ref. Entries deeper than maxDepth are
// left out, the root's children being depth 0; nil or a negative depth
// means unlimited. A recursive listing is used when the provider offers
// one and it was not cut short; otherwise directories are expanded level
// by level.
func (b *Builder) BuildTree(ctx context.Context, ref remote.RepoRef, maxDepth *int) (*Node, error) {
	logger := zerolog.Ctx(ctx)

	limit := -1
	if maxDepth != nil && *maxDepth >= 0 {
		limit = *maxDepth
	}

	ref, err := b.provider.ResolveRef(ctx, ref)
	if err != nil {
		return nil, errors.Errorf("resolving ref: %w", err)
	}

	if lister, ok := b.provider.(remote.TreeLister); ok {
		entries, truncated, err := lister.ListTree(ctx, ref)
		if err != nil {
			return nil, errors.Errorf("listing tree: %w", err)
		}
		if !truncated {
			return b.fromEntries(ctx, entries, limit), nil
		}
		logger.Info().Str("repo", ref.String()).Msg("recursive listing was truncated, expanding directories one by one")
	}

	return b.expand(ctx, ref, limit)
}

func (b *Builder) fromEntries(ctx context.Context, entries []remote.TreeEntry, limit int) *Node {
	logger := zerolog.Ctx(ctx)

	root := NewRoot()
	for _, e := range entries {
		if limit >= 0 && depthOf(e.Path) > limit {
			continue
		}
		if err := root.Insert(e); err != nil {
			logger.Warn().Err(err).Str("path", e.Path).Msg("skipping inconsistent tree entry")
		}
	}
	root.Sort()
	return root
}

// expand lists the tree breadth first using an explicit worklist of
// directories, one level at a time.
func (b *Builder) expand(ctx context.Context, ref remote.RepoRef, limit int) (*Node, error) {
	logger := zerolog.Ctx(ctx)

	root := NewRoot()
	level := []string{""}

	for depth := 0; len(level) > 0; depth++ {
		results := make([][]remote.TreeEntry, len(level))
		failures := make([]error, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.concurrency)
		for i, dir := range level {
			i, dir := i, dir
			g.Go(func() error {
				entries, err := b.provider.ListEntries(gctx, ref, dir)
				if err != nil {
					if dir == "" || remote.IsFatal(err) {
						return errors.Errorf("listing %q: %w", dir, err)
					}
					failures[i] = err
					return nil
				}
				results[i] = entries
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []string
		for i, entries := range results {
			if failures[i] != nil {
				logger.Warn().Err(failures[i]).Str("dir", level[i]).Msg("could not expand directory")
				root.Incomplete = true
				continue
			}
			for _, e := range entries {
				if err := root.Insert(e); err != nil {
					logger.Warn().Err(err).Str("path", e.Path).Msg("skipping inconsistent tree entry")
					continue
				}
				if e.Type == remote.EntryDir && (limit < 0 || depth < limit) {
					next = append(next, strings.Trim(e.Path, "/"))
				}
			}
		}

		sort.Strings(next)
		level = next
	}

	root.Sort()
	return root, nil
}

func depthOf(path string) int {
	return strings.Count(strings.Trim(path, "/"), "/")
}
