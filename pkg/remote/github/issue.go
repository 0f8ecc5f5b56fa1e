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
	"strconv"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// GetIssue fetches an issue and every page of its comments.
func (c *Client) GetIssue(ctx context.Context, ref remote.RepoRef, number int) (remote.IssueContext, error) {
	label := fmt.Sprintf("#%d", number)

	var issue *github.Issue
	err := c.do(ctx, "get issue", label, func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		issue, resp, err = c.client.GetIssue(ctx, ref.Owner, ref.Name, number)
		return resp, err
	})
	if err != nil {
		return remote.IssueContext{}, errors.Errorf("getting issue %s%s: %w", ref.FullName(), label, err)
	}

	out := remote.IssueContext{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		State:         issue.GetState(),
		Author:        issue.GetUser().GetLogin(),
		URL:           issue.GetHTMLURL(),
		IsPullRequest: issue.IsPullRequest(),
		CreatedAt:     issue.GetCreatedAt().Time,
		UpdatedAt:     issue.GetUpdatedAt().Time,
		CommentsCount: issue.GetComments(),
	}

	if out.CommentsCount == 0 {
		return out, nil
	}

	comments, err := paginate(ctx, c, "list issue comments", label,
		func(ic *github.IssueComment) string { return strconv.FormatInt(ic.GetID(), 10) },
		func(ctx context.Context, opts github.ListOptions) ([]*github.IssueComment, *github.Response, error) {
			return c.client.ListIssueComments(ctx, ref.Owner, ref.Name, number, &github.IssueListCommentsOptions{
				Sort:        github.String("created"),
				Direction:   github.String("asc"),
				ListOptions: opts,
			})
		})
	if err != nil {
		return remote.IssueContext{}, errors.Errorf("listing comments of %s%s: %w", ref.FullName(), label, err)
	}

	for _, ic := range comments {
		login := ic.GetUser().GetLogin()
		if login == "" {
			zerolog.Ctx(ctx).Debug().Int64("comment", ic.GetID()).Msg("skipping comment without author")
			continue
		}
		out.Comments = append(out.Comments, remote.Comment{
			ID:        ic.GetID(),
			Author:    login,
			Body:      ic.GetBody(),
			CreatedAt: ic.GetCreatedAt().Time,
			URL:       ic.GetHTMLURL(),
		})
	}

	return out, nil
}
