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
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

const (
	defaultRetries        = 3
	defaultRetryBaseDelay = 250 * time.Millisecond
	defaultCallTimeout    = 15 * time.Second

	perPage  = 100
	maxPages = 100
)

func init() {
	remote.RegisterProvider("github", func(ctx context.Context, opts remote.ClientOptions) (remote.Provider, error) {
		return New(ctx, opts)
	})
}

// GitHubClient defines the GitHub API operations we need
type GitHubClient interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
	GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	GetBlobRaw(ctx context.Context, owner, repo, sha string) ([]byte, *github.Response, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string, opts *github.ListOptions) (*github.CommitsComparison, *github.Response, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error)
}

// githubClientWrapper wraps the GitHub client to implement our interface
type githubClientWrapper struct {
	client *github.Client
}

func (w *githubClientWrapper) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error) {
	return w.client.Repositories.Get(ctx, owner, repo)
}

func (w *githubClientWrapper) GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error) {
	return w.client.Git.GetTree(ctx, owner, repo, sha, recursive)
}

func (w *githubClientWrapper) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	return w.client.Repositories.GetContents(ctx, owner, repo, path, opts)
}

func (w *githubClientWrapper) GetBlobRaw(ctx context.Context, owner, repo, sha string) ([]byte, *github.Response, error) {
	return w.client.Git.GetBlobRaw(ctx, owner, repo, sha)
}

func (w *githubClientWrapper) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return w.client.Issues.Get(ctx, owner, repo, number)
}

func (w *githubClientWrapper) ListIssueComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return w.client.Issues.ListComments(ctx, owner, repo, number, opts)
}

func (w *githubClientWrapper) CompareCommits(ctx context.Context, owner, repo, base, head string, opts *github.ListOptions) (*github.CommitsComparison, *github.Response, error) {
	return w.client.Repositories.CompareCommits(ctx, owner, repo, base, head, opts)
}

func (w *githubClientWrapper) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return w.client.PullRequests.Get(ctx, owner, repo, number)
}

func (w *githubClientWrapper) ListPullRequestFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
	return w.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
}

// 🐙 Client implements remote.Provider against the GitHub REST API.
type Client struct {
	client      GitHubClient
	pacer       remote.Pacer
	retries     int
	baseDelay   time.Duration
	callTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

var (
	_ remote.Provider   = (*Client)(nil)
	_ remote.TreeLister = (*Client)(nil)
)

// New creates an authenticated client. A missing token fails before any
// network call is made.
func New(ctx context.Context, opts remote.ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, remote.NewError(remote.KindAuth, "create github client", errors.New("no access token configured"))
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	gh := github.NewClient(oauth2.NewClient(context.Background(), ts))

	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, remote.NewError(remote.KindInvalidInput, "create github client", errors.Errorf("parsing base url: %w", err))
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	zerolog.Ctx(ctx).Debug().Str("base_url", gh.BaseURL.String()).Msg("created github client")

	return newClient(&githubClientWrapper{client: gh}, opts), nil
}

func newClient(gh GitHubClient, opts remote.ClientOptions) *Client {
	c := &Client{
		client:      gh,
		pacer:       opts.Pacer,
		retries:     opts.Retries,
		baseDelay:   opts.RetryBaseDelay,
		callTimeout: opts.CallTimeout,
		sleep:       sleep,
	}
	if c.pacer == nil {
		c.pacer = noopPacer{}
	}
	if c.retries <= 0 {
		c.retries = defaultRetries
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultRetryBaseDelay
	}
	if c.callTimeout <= 0 {
		c.callTimeout = defaultCallTimeout
	}
	return c
}

// Name returns the name of the provider
func (c *Client) Name() string {
	return "github"
}

// do runs one logical API call: pacing, a per-call timeout, budget updates
// and bounded retries of transient failures.
func (c *Client) do(ctx context.Context, op string, path string, call func(ctx context.Context) (*github.Response, error)) error {
	logger := zerolog.Ctx(ctx)

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			logger.Debug().Str("op", op).Int("attempt", attempt+1).Dur("delay", delay).Err(lastErr).Msg("retrying github api call")
			if err := c.sleep(ctx, delay); err != nil {
				return remote.NewError(remote.KindCanceled, op, err).WithPath(path)
			}
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return errors.Errorf("pacing %s: %w", op, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		start := time.Now()
		resp, err := call(callCtx)
		cancel()

		c.observe(resp)

		event := logger.Debug().Str("op", op).Str("path", path).Dur("elapsed", time.Since(start))
		if resp != nil && resp.Response != nil {
			event = event.Int("status", resp.StatusCode).Int("rate_remaining", resp.Rate.Remaining)
		}
		event.Err(err).Msg("github api call")

		if err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return remote.NewError(remote.KindCanceled, op, ctxErr).WithPath(path)
		}

		lastErr = classify(op, path, resp, err)
		if !remote.IsRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	c.pacer.Observe(remote.Rate{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	})
}

// classify maps GitHub failures onto the remote error kinds.
func classify(op, path string, resp *github.Response, err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
	)

	switch {
	case errors.As(err, &rateErr):
		rerr := remote.NewError(remote.KindRateLimit, op, err).WithPath(path)
		rerr.ResetAt = rateErr.Rate.Reset.Time
		return rerr
	case errors.As(err, &abuseErr):
		rerr := remote.NewError(remote.KindRateLimit, op, err).WithPath(path)
		if abuseErr.RetryAfter != nil {
			rerr.ResetAt = time.Now().Add(*abuseErr.RetryAfter)
		}
		return rerr
	case errors.As(err, &respErr) && respErr.Response != nil:
		return remote.NewError(kindForStatus(respErr.Response.StatusCode), op, err).WithPath(path)
	case errors.Is(err, context.DeadlineExceeded):
		return remote.NewError(remote.KindNetwork, op, errors.Errorf("call timed out: %w", err)).WithPath(path)
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= 400 {
		return remote.NewError(kindForStatus(resp.StatusCode), op, err).WithPath(path)
	}

	return remote.NewError(remote.KindNetwork, op, err).WithPath(path)
}

func kindForStatus(status int) remote.Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return remote.KindAuth
	case status == http.StatusNotFound:
		return remote.KindNotFound
	case status == http.StatusTooManyRequests:
		return remote.KindRateLimit
	case status == http.StatusRequestTimeout, status >= 500:
		return remote.KindNetwork
	case status >= 400:
		return remote.KindInvalidInput
	default:
		return remote.KindUnknown
	}
}

func statusOf(err error) int {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

// paginate follows NextPage links until exhaustion, dropping items whose key
// was already seen so the merged sequence keeps provider order.
func paginate[T any](ctx context.Context, c *Client, op, path string, key func(T) string, fetch func(ctx context.Context, opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	var (
		out  []T
		seen = map[string]bool{}
		page = 1
	)

	for pages := 0; page != 0; pages++ {
		if pages >= maxPages {
			zerolog.Ctx(ctx).Warn().Str("op", op).Int("pages", pages).Msg("stopped following pagination at page cap")
			break
		}

		var (
			items []T
			next  int
		)
		opts := github.ListOptions{Page: page, PerPage: perPage}
		err := c.do(ctx, op, path, func(ctx context.Context) (*github.Response, error) {
			var (
				resp *github.Response
				err  error
			)
			items, resp, err = fetch(ctx, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			k := key(item)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, item)
		}
		page = next
	}

	return out, nil
}

type noopPacer struct{}

func (noopPacer) Wait(context.Context) error { return nil }
func (noopPacer) Observe(remote.Rate)        {}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
