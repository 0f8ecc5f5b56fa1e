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

package contents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
	"github.com/walteh/secondbrain/pkg/tree"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// EventKind says what happened to one path during a fetch.
type EventKind string

const (
	EventFetched EventKind = "fetched"
	EventBinary  EventKind = "binary"
	EventOmitted EventKind = "omitted"
	EventFailed  EventKind = "failed"
)

// Event reports the outcome for one path.
type Event struct {
	Kind EventKind
	Path string
	Size int64
	Err  error
}

// Options configures a Fetcher.
type Options struct {
	// Concurrency bounds in-flight blob fetches.
	Concurrency int
	// Exclude lists doublestar patterns skipped when expanding directories.
	Exclude []string
	// Observer, when set, is told about every path in output order.
	Observer func(Event)
}

// 📥 Fetcher resolves repository paths to text, expanding directories into
// labeled sections bounded by the guard.
type Fetcher struct {
	provider remote.Provider
	builder  *tree.Builder
	guard    *guard.Guard
	opts     Options
}

// NewFetcher creates a fetcher reading from provider.
func NewFetcher(provider remote.Provider, g *guard.Guard, opts Options) *Fetcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = tree.DefaultConcurrency
	}
	return &Fetcher{
		provider: provider,
		builder:  tree.NewBuilder(provider, opts.Concurrency),
		guard:    g,
		opts:     opts,
	}
}

// GetContents returns the file at path, or every file below it when path is
// a directory. An empty path or "/" means the whole repository. Paths that
// do not match exactly resolve case-insensitively to the lexically first
// candidate.
func (f *Fetcher) GetContents(ctx context.Context, ref remote.RepoRef, path string) (string, error) {
	logger := zerolog.Ctx(ctx)

	ref, err := f.provider.ResolveRef(ctx, ref)
	if err != nil {
		return "", errors.Errorf("resolving ref: %w", err)
	}

	path = strings.Trim(strings.TrimSpace(path), "/")

	if path != "" {
		blob, err := f.provider.GetBlob(ctx, ref, path)
		switch {
		case err == nil:
			return f.single(blob), nil
		case errors.Is(err, remote.ErrIsDirectory), remote.KindOf(err) == remote.KindNotFound:
			logger.Debug().Str("path", path).Err(err).Msg("path is not a file, resolving against the tree")
		default:
			return "", errors.Errorf("fetching %s: %w", path, err)
		}
	}

	root, err := f.builder.BuildTree(ctx, ref, nil)
	if err != nil {
		return "", errors.Errorf("listing %s: %w", ref, err)
	}

	if path == "" {
		if len(root.Children) == 0 {
			return "(Repository is empty)\n", nil
		}
		return f.directory(ctx, ref, root)
	}

	target := root.Resolve(path)
	if target == nil {
		return "", remote.NewError(remote.KindNotFound, "get contents", errors.Errorf("no file or directory matches %q", path)).WithPath(path)
	}
	if target.Path != path {
		logger.Info().Str("requested", path).Str("resolved", target.Path).Msg("resolved path case-insensitively")
	}

	if target.Type == remote.EntryFile {
		blob, err := f.provider.GetBlob(ctx, ref, target.Path)
		if err != nil {
			return "", errors.Errorf("fetching %s: %w", target.Path, err)
		}
		return f.single(blob), nil
	}

	return f.directory(ctx, ref, target)
}

// single formats one file. Text longer than the ceiling is cut at the last
// line break that fits and followed by a marker.
func (f *Fetcher) single(blob remote.FileBlob) string {
	if blob.Binary {
		f.emit(Event{Kind: EventBinary, Path: blob.Path, Size: blob.Size})
		return Placeholder(blob)
	}

	f.emit(Event{Kind: EventFetched, Path: blob.Path, Size: blob.Size})

	if f.guard.Admit(0, len(blob.Content)).Allowed {
		return blob.Content
	}

	reserve := f.guard.MarkerReserve()
	cut := guard.CutAtLine(blob.Content, f.guard.Ceiling()-reserve)
	title := fmt.Sprintf("file exceeds the output limit, showing %d of %d bytes", len(cut), len(blob.Content))
	return cut + guard.Marker(title, nil, reserve)
}

type fetched struct {
	blob remote.FileBlob
	err  error
	// skipped files were never fetched because they could not fit
	skipped bool
}

// directory fetches every file below dir in canonical order. Fetches run in
// windows of the configured concurrency; assembly always follows the tree
// order, so output does not depend on completion order.
func (f *Fetcher) directory(ctx context.Context, ref remote.RepoRef, dir *tree.Node) (string, error) {
	logger := zerolog.Ctx(ctx)

	files := dir.Files(f.opts.Exclude)
	if len(files) == 0 {
		return fmt.Sprintf("(No files under %s/)\n", dir.Path), nil
	}

	reserve := f.guard.MarkerReserve()
	acc := f.guard.Accumulate(reserve)

	var (
		omitted  []string
		failures []string
		firstErr error
		binaries int
	)

	for start := 0; start < len(files); {
		batch := f.window(files[start:], acc)
		results := make([]fetched, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.opts.Concurrency)
		for i, node := range batch {
			i, node := i, node
			if !f.worthFetching(node, acc) {
				results[i].skipped = true
				continue
			}
			g.Go(func() error {
				blob, err := f.provider.GetBlob(gctx, ref, node.Path)
				if err != nil {
					if remote.IsFatal(err) {
						return errors.Errorf("fetching %s: %w", node.Path, err)
					}
					results[i].err = err
					return nil
				}
				results[i].blob = blob
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}

		for i, node := range batch {
			r := results[i]
			switch {
			case r.skipped:
				omitted = append(omitted, node.Path)
				f.emit(Event{Kind: EventOmitted, Path: node.Path, Size: node.Size})
			case r.err != nil:
				logger.Warn().Err(r.err).Str("path", node.Path).Msg("could not fetch file")
				if firstErr == nil {
					firstErr = r.err
				}
				failures = append(failures, fmt.Sprintf("%s (%s)", node.Path, remote.KindOf(r.err)))
				f.emit(Event{Kind: EventFailed, Path: node.Path, Err: r.err})
			case r.blob.Binary:
				if acc.Add(Placeholder(r.blob)) {
					binaries++
					f.emit(Event{Kind: EventBinary, Path: node.Path, Size: r.blob.Size})
				} else {
					omitted = append(omitted, node.Path)
					f.emit(Event{Kind: EventOmitted, Path: node.Path, Size: r.blob.Size})
				}
			default:
				if acc.Add(Section(node.Path, r.blob.Content)) {
					f.emit(Event{Kind: EventFetched, Path: node.Path, Size: r.blob.Size})
				} else {
					omitted = append(omitted, node.Path)
					f.emit(Event{Kind: EventOmitted, Path: node.Path, Size: r.blob.Size})
				}
			}
		}
		start += len(batch)
	}

	if acc.Kept() == 0 && firstErr != nil {
		return "", errors.Errorf("no file under %q could be fetched: %w", dir.Path, firstErr)
	}

	logger.Debug().
		Int("files", len(files)).
		Int("kept", acc.Kept()).
		Int("binary", binaries).
		Int("omitted", len(omitted)).
		Int("failed", len(failures)).
		Int("bytes", acc.Len()).
		Msg("assembled directory contents")

	var out strings.Builder
	out.WriteString(acc.String())
	budget := reserve
	if len(omitted) > 0 {
		m := guard.Marker(fmt.Sprintf("output limit reached, %s omitted", plural(len(omitted), "file")), omitted, budget)
		out.WriteString(m)
		budget -= len(m)
	}
	if len(failures) > 0 && budget > 0 {
		out.WriteString(guard.Marker(fmt.Sprintf("%s could not be fetched", plural(len(failures), "file")), failures, budget))
	}
	return out.String(), nil
}

// window picks the next files to fetch together: at most Concurrency of
// them, ending early once their declared sizes use up the remaining budget.
func (f *Fetcher) window(files []*tree.Node, acc *guard.Accumulator) []*tree.Node {
	n := f.opts.Concurrency
	if n > len(files) {
		n = len(files)
	}
	projected := 0
	for i := 0; i < n; i++ {
		projected += len(sectionHeader(files[i].Path)) + int(files[i].Size) + 1
		if projected > acc.Remaining() {
			return files[:i+1]
		}
	}
	return files[:n]
}

// worthFetching reports whether a file could still fit. Files whose declared
// size already exceeds the remaining budget are skipped unless their name
// suggests a binary, which would only take a placeholder.
func (f *Fetcher) worthFetching(node *tree.Node, acc *guard.Accumulator) bool {
	if acc.Remaining() == 0 {
		return false
	}
	if node.Size <= 0 || remote.LikelyBinaryName(node.Path) {
		return true
	}
	return acc.Fits(len(sectionHeader(node.Path)) + int(node.Size) + 1)
}

func (f *Fetcher) emit(e Event) {
	if f.opts.Observer != nil {
		f.opts.Observer(e)
	}
}
