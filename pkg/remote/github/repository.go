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

package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// ResolveRef fills in the repository's default branch when no ref was given.
func (c *Client) ResolveRef(ctx context.Context, ref remote.RepoRef) (remote.RepoRef, error) {
	if ref.Ref != "" {
		return ref, nil
	}

	var repo *github.Repository
	err := c.do(ctx, "get repository", "", func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		repo, resp, err = c.client.GetRepository(ctx, ref.Owner, ref.Name)
		return resp, err
	})
	if err != nil {
		return ref, errors.Errorf("resolving default branch of %s: %w", ref.FullName(), err)
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	zerolog.Ctx(ctx).Debug().Str("repo", ref.FullName()).Str("ref", branch).Msg("resolved default branch")
	return ref.WithRef(branch), nil
}

// ListTree lists the whole tree recursively in one call. An empty
// repository yields no entries.
func (c *Client) ListTree(ctx context.Context, ref remote.RepoRef) ([]remote.TreeEntry, bool, error) {
	ref, err := c.ResolveRef(ctx, ref)
	if err != nil {
		return nil, false, err
	}

	var tree *github.Tree
	err = c.do(ctx, "get tree", "", func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		tree, resp, err = c.client.GetTree(ctx, ref.Owner, ref.Name, ref.Ref, true)
		return resp, err
	})
	if err != nil {
		if statusOf(err) == http.StatusConflict {
			zerolog.Ctx(ctx).Info().Str("repo", ref.String()).Msg("tree listing conflicted, treating repository as empty")
			return nil, false, nil
		}
		return nil, false, errors.Errorf("listing tree of %s: %w", ref, err)
	}

	entries := make([]remote.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entry, ok := treeEntry(e.GetType(), e.GetPath(), int64(e.GetSize()), e.GetSHA())
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("path", e.GetPath()).Str("type", e.GetType()).Msg("skipping tree entry")
			continue
		}
		entries = append(entries, entry)
	}

	if tree.GetTruncated() {
		zerolog.Ctx(ctx).Warn().Str("repo", ref.String()).Int("entries", len(entries)).Msg("github truncated the recursive tree listing")
	}

	return entries, tree.GetTruncated(), nil
}

// ListEntries lists the direct children of a directory.
func (c *Client) ListEntries(ctx context.Context, ref remote.RepoRef, path string) ([]remote.TreeEntry, error) {
	path = cleanPath(path)

	file, dir, err := c.getContents(ctx, ref, path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		entry, _ := treeEntry("blob", file.GetPath(), int64(file.GetSize()), file.GetSHA())
		return []remote.TreeEntry{entry}, nil
	}

	entries := make([]remote.TreeEntry, 0, len(dir))
	for _, e := range dir {
		entry, ok := treeEntry(e.GetType(), e.GetPath(), int64(e.GetSize()), e.GetSHA())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetBlob fetches one file. Files too large for inline content are fetched
// as raw git blobs.
func (c *Client) GetBlob(ctx context.Context, ref remote.RepoRef, path string) (remote.FileBlob, error) {
	path = cleanPath(path)
	if path == "" {
		return remote.FileBlob{}, remote.NewError(remote.KindInvalidInput, "get blob", remote.ErrIsDirectory).WithPath("/")
	}

	file, _, err := c.getContents(ctx, ref, path)
	if err != nil {
		return remote.FileBlob{}, err
	}
	if file == nil {
		return remote.FileBlob{}, remote.NewError(remote.KindInvalidInput, "get blob", remote.ErrIsDirectory).WithPath(path)
	}

	switch file.GetType() {
	case "symlink":
		return remote.NewBlob(file.GetPath(), file.GetSHA(), []byte(file.GetTarget())), nil
	case "submodule":
		blob := remote.NewBlob(file.GetPath(), file.GetSHA(), nil)
		blob.Binary = true
		blob.DetectedType = "git submodule"
		return blob, nil
	}

	if enc := file.GetEncoding(); enc == "base64" || (enc == "" && file.Content != nil) {
		content, err := file.GetContent()
		if err != nil {
			return remote.FileBlob{}, remote.NewError(remote.KindDataInconsistency, "get blob", errors.Errorf("decoding content: %w", err)).WithPath(path)
		}
		return remote.NewBlob(file.GetPath(), file.GetSHA(), []byte(content)), nil
	}

	if file.GetSize() == 0 {
		return remote.NewBlob(file.GetPath(), file.GetSHA(), nil), nil
	}

	var raw []byte
	err = c.do(ctx, "get blob", path, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		raw, resp, err = c.client.GetBlobRaw(ctx, ref.Owner, ref.Name, file.GetSHA())
		return resp, err
	})
	if err != nil {
		return remote.FileBlob{}, errors.Errorf("fetching raw blob %s: %w", path, err)
	}
	return remote.NewBlob(file.GetPath(), file.GetSHA(), raw), nil
}

func (c *Client) getContents(ctx context.Context, ref remote.RepoRef, path string) (*github.RepositoryContent, []*github.RepositoryContent, error) {
	var (
		file *github.RepositoryContent
		dir  []*github.RepositoryContent
	)
	err := c.do(ctx, "get contents", path, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		file, dir, resp, err = c.client.GetContents(ctx, ref.Owner, ref.Name, path, &github.RepositoryContentGetOptions{
			Ref: ref.Ref,
		})
		return resp, err
	})
	if err != nil {
		return nil, nil, errors.Errorf("getting contents of %q in %s: %w", path, ref, err)
	}
	return file, dir, nil
}

// treeEntry converts provider entry types. Submodules and other non file
// entries are skipped by listings.
func treeEntry(typ, path string, size int64, sha string) (remote.TreeEntry, bool) {
	switch typ {
	case "blob", "file", "symlink":
		return remote.TreeEntry{Path: path, Type: remote.EntryFile, Size: size, SHA: sha}, true
	case "tree", "dir":
		return remote.TreeEntry{Path: path, Type: remote.EntryDir, SHA: sha}, true
	default:
		return remote.TreeEntry{}, false
	}
}

func cleanPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
