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
	"fmt"

	"github.com/google/go-github/v60/github"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// GetDiff compares base with head. GitHub returns at most 300 files for a
// comparison and lists them in a single response.
func (c *Client) GetDiff(ctx context.Context, ref remote.RepoRef, base, head string) (remote.DiffResult, error) {
	label := base + "..." + head

	var cmp *github.CommitsComparison
	err := c.do(ctx, "compare commits", label, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		cmp, resp, err = c.client.CompareCommits(ctx, ref.Owner, ref.Name, base, head, nil)
		return resp, err
	})
	if err != nil {
		return remote.DiffResult{}, errors.Errorf("comparing %s in %s: %w", label, ref.FullName(), err)
	}

	return remote.DiffResult{
		Base:  base,
		Head:  head,
		Files: fileDiffs(cmp.Files),
	}, nil
}

// GetPullRequestDiff lists every page of files changed by a pull request.
func (c *Client) GetPullRequestDiff(ctx context.Context, ref remote.RepoRef, number int) (remote.DiffResult, error) {
	label := fmt.Sprintf("#%d", number)

	var pr *github.PullRequest
	err := c.do(ctx, "get pull request", label, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		pr, resp, err = c.client.GetPullRequest(ctx, ref.Owner, ref.Name, number)
		return resp, err
	})
	if err != nil {
		return remote.DiffResult{}, errors.Errorf("getting pull request %s%s: %w", ref.FullName(), label, err)
	}

	files, err := paginate(ctx, c, "list pull request files", label,
		func(f *github.CommitFile) string { return f.GetFilename() },
		func(ctx context.Context, opts github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
			return c.client.ListPullRequestFiles(ctx, ref.Owner, ref.Name, number, &opts)
		})
	if err != nil {
		return remote.DiffResult{}, errors.Errorf("listing files of %s%s: %w", ref.FullName(), label, err)
	}

	return remote.DiffResult{
		Base:        pr.GetBase().GetRef(),
		Head:        pr.GetHead().GetRef(),
		PullRequest: number,
		Files:       fileDiffs(files),
	}, nil
}

func fileDiffs(files []*github.CommitFile) []remote.FileDiff {
	out := make([]remote.FileDiff, 0, len(files))
	for _, f := range files {
		out = append(out, remote.FileDiff{
			Path:         f.GetFilename(),
			PreviousPath: f.GetPreviousFilename(),
			Status:       remote.ParseChangeStatus(f.GetStatus()),
			Additions:    f.GetAdditions(),
			Deletions:    f.GetDeletions(),
			Patch:        f.GetPatch(),
		})
	}
	return out
}
