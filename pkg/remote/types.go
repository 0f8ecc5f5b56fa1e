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
	"fmt"
	"regexp"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// identifierPattern matches owner and repository names as accepted by GitHub.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// 📦 RepoRef identifies the repository snapshot every operation targets.
// An empty Ref means the repository's default branch.
type RepoRef struct {
	Owner string
	Name  string
	Ref   string
}

// ParseRepoRef parses "owner/name" or "owner/name@ref".
func ParseRepoRef(s string) (RepoRef, error) {
	if strings.TrimSpace(s) == "" {
		return RepoRef{}, NewError(KindInvalidInput, "parse repository", errors.New("empty repository name"))
	}

	name, ref, _ := strings.Cut(s, "@")

	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return RepoRef{}, NewError(KindInvalidInput, "parse repository", errors.Errorf("invalid repository name: %s", s))
	}

	r := RepoRef{
		Owner: strings.TrimSpace(parts[0]),
		Name:  strings.TrimSpace(parts[1]),
		Ref:   strings.TrimSpace(ref),
	}
	if err := r.Validate(); err != nil {
		return RepoRef{}, err
	}
	return r, nil
}

// Validate checks that owner and name are non-empty identifiers.
func (r RepoRef) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return NewError(KindInvalidInput, "validate repository", errors.Errorf("invalid repository name: %q/%q", r.Owner, r.Name))
	}
	if !identifierPattern.MatchString(r.Owner) {
		return NewError(KindInvalidInput, "validate repository", errors.Errorf("invalid repository owner: %q", r.Owner))
	}
	if !identifierPattern.MatchString(r.Name) {
		return NewError(KindInvalidInput, "validate repository", errors.Errorf("invalid repository name: %q", r.Name))
	}
	return nil
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// WithRef returns a copy of r pointing at ref.
func (r RepoRef) WithRef(ref string) RepoRef {
	r.Ref = ref
	return r
}

func (r RepoRef) String() string {
	if r.Ref == "" {
		return r.FullName()
	}
	return fmt.Sprintf("%s@%s", r.FullName(), r.Ref)
}

// 🗂️ EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// TreeEntry is one record of a repository listing. Path is relative to the
// repository root and slash separated.
type TreeEntry struct {
	Path string
	Type EntryType
	Size int64 // files only
	SHA  string
}

// 📄 FileBlob is the content of a single file. Binary blobs carry no text:
// Content is empty and DetectedType names what was found instead.
type FileBlob struct {
	Path         string
	Content      string
	Encoding     string
	Size         int64
	SHA          string
	Binary       bool
	DetectedType string
}

// 💬 Comment is one issue comment.
type Comment struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
	URL       string
}

// IssueContext is an issue (or pull request conversation) with its comments
// in chronological order.
type IssueContext struct {
	Number        int
	Title         string
	Body          string
	State         string
	Author        string
	URL           string
	IsPullRequest bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CommentsCount int
	Comments      []Comment
}

// ChangeStatus is the kind of change a FileDiff records.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusRemoved  ChangeStatus = "removed"
	StatusRenamed  ChangeStatus = "renamed"
)

// ParseChangeStatus folds provider statuses into the four we report.
func ParseChangeStatus(s string) ChangeStatus {
	switch strings.ToLower(s) {
	case "added", "copied":
		return StatusAdded
	case "removed", "deleted":
		return StatusRemoved
	case "renamed":
		return StatusRenamed
	default:
		return StatusModified
	}
}

// FileDiff is the change to a single path. Patch is unified diff text exactly
// as the provider returned it.
type FileDiff struct {
	Path         string
	PreviousPath string
	Status       ChangeStatus
	Additions    int
	Deletions    int
	Patch        string
}

// 🔀 DiffResult is an ordered set of file changes between two refs.
type DiffResult struct {
	Base        string
	Head        string
	PullRequest int
	Files       []FileDiff
}

// Rate is a snapshot of the provider's rate limit headers.
type Rate struct {
	Limit     int
	Remaining int
	Reset     time.Time
}
