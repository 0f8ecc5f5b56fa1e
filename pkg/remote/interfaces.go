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

package remote

import (
	"context"
	"sort"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

var registry = map[string]Factory{}

// Factory builds a Provider from client options.
type Factory func(ctx context.Context, opts ClientOptions) (Provider, error)

func RegisterProvider(name string, factory Factory) {
	registry[name] = factory
}

// NewProvider builds the named provider.
func NewProvider(ctx context.Context, name string, opts ClientOptions) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		options := []string{}
		for k := range registry {
			options = append(options, k)
		}
		sort.Strings(options)
		return nil, errors.Errorf("provider %s not found, options: %s", name, strings.Join(options, ", "))
	}
	return factory(ctx, opts)
}

// ClientOptions configures a remote API client. Token is read-only
// configuration and must never be logged.
type ClientOptions struct {
	BaseURL        string
	Token          string
	Pacer          Pacer
	Retries        int
	RetryBaseDelay time.Duration
	CallTimeout    time.Duration
}

// Pacer is consulted before every remote call and told about the rate limit
// headers of every response.
type Pacer interface {
	// Wait blocks until the next call may be issued or returns a rate limit error.
	Wait(ctx context.Context) error
	// Observe records the provider's rate limit state after a response.
	Observe(rate Rate)
}

// Provider is the primary interface for interacting with a source control host.
type Provider interface {
	// Name returns the name of the provider (e.g. "github")
	Name() string
	// ResolveRef fills in the default branch when ref.Ref is empty.
	ResolveRef(ctx context.Context, ref RepoRef) (RepoRef, error)
	// ListEntries lists the direct children of a directory.
	ListEntries(ctx context.Context, ref RepoRef, path string) ([]TreeEntry, error)
	// GetBlob fetches a single file. Directories fail with ErrIsDirectory.
	GetBlob(ctx context.Context, ref RepoRef, path string) (FileBlob, error)
	// GetIssue fetches an issue and all of its comments.
	GetIssue(ctx context.Context, ref RepoRef, number int) (IssueContext, error)
	// GetDiff compares two refs.
	GetDiff(ctx context.Context, ref RepoRef, base, head string) (DiffResult, error)
	// GetPullRequestDiff returns the files changed by a pull request.
	GetPullRequestDiff(ctx context.Context, ref RepoRef, number int) (DiffResult, error)
}

// TreeLister is implemented by providers that can list a whole tree in one
// logical call. Truncated reports that the provider cut the listing short.
type TreeLister interface {
	ListTree(ctx context.Context, ref RepoRef) (entries []TreeEntry, truncated bool, err error)
}
