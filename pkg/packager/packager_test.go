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

package packager_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/packager"
	"github.com/walteh/secondbrain/pkg/remote"
)

func ceiling(n int) *guard.Guard {
	return guard.New(nil, guard.Options{MaxOutputBytes: n})
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func issue42() remote.IssueContext {
	return remote.IssueContext{
		Number:    42,
		Title:     "Crash on empty input",
		Body:      "Steps:\n1. run with no args\n",
		State:     "open",
		Author:    "alice",
		URL:       "https://github.com/octo/hello/issues/42",
		CreatedAt: t0,
		UpdatedAt: t0.Add(3 * time.Hour),
		Comments: []remote.Comment{
			{ID: 3, Author: "carol", Body: "fixed in #43", CreatedAt: t0.Add(2 * time.Hour)},
			{ID: 1, Author: "bob", Body: "can reproduce", CreatedAt: t0.Add(time.Minute)},
			{ID: 2, Author: "alice", Body: "stack trace attached", CreatedAt: t0.Add(time.Hour)},
		},
	}
}

func TestFormatIssue(t *testing.T) {
	t.Run("test_comments_in_chronological_order", func(t *testing.T) {
		out := packager.FormatIssue(issue42(), ceiling(100_000))

		want := "# Issue #42: Crash on empty input\n\n" +
			"State: open\n" +
			"Author: alice\n" +
			"Created: 2025-03-01T12:00:00Z\n" +
			"Updated: 2025-03-01T15:00:00Z\n" +
			"URL: https://github.com/octo/hello/issues/42\n" +
			"Comments: 3\n" +
			"\n## Body\n\nSteps:\n1. run with no args\n" +
			"\n## Comments\n" +
			"\n### Comment 1 by bob at 2025-03-01T12:01:00Z\n\ncan reproduce\n" +
			"\n### Comment 2 by alice at 2025-03-01T13:00:00Z\n\nstack trace attached\n" +
			"\n### Comment 3 by carol at 2025-03-01T14:00:00Z\n\nfixed in #43\n"
		assert.Equal(t, want, out)
		assert.Equal(t, 3, strings.Count(out, "\n### Comment "))
	})

	t.Run("test_pull_request_without_body_or_comments", func(t *testing.T) {
		out := packager.FormatIssue(remote.IssueContext{
			Number:        7,
			Title:         "Bump deps",
			State:         "closed",
			IsPullRequest: true,
		}, ceiling(100_000))

		assert.True(t, strings.HasPrefix(out, "# Pull Request #7: Bump deps\n"))
		assert.Contains(t, out, "Author: unknown\n")
		assert.Contains(t, out, "Created: unknown\n")
		assert.Contains(t, out, "(no description)\n")
		assert.True(t, strings.HasSuffix(out, "## Comments\n\n(no comments)\n"))
		assert.NotContains(t, out, "URL:")
	})

	t.Run("test_comments_truncated_with_footer", func(t *testing.T) {
		issue := issue42()
		issue.Comments = nil
		for i := 0; i < 50; i++ {
			issue.Comments = append(issue.Comments, remote.Comment{
				ID:        int64(i),
				Author:    "bot",
				Body:      strings.Repeat(fmt.Sprintf("comment %d ", i), 10),
				CreatedAt: t0.Add(time.Duration(i) * time.Minute),
			})
		}

		out := packager.FormatIssue(issue, ceiling(2000))
		assert.LessOrEqual(t, len(out), 2000)

		shown := strings.Count(out, "\n### Comment ")
		require.Greater(t, shown, 0)
		require.Less(t, shown, 50)
		assert.Contains(t, out, fmt.Sprintf("[%d of 50 comments omitted: output limit reached]\n", 50-shown))
		assert.Contains(t, out, fmt.Sprintf("### Comment %d by bot", shown))
		assert.NotContains(t, out, fmt.Sprintf("### Comment %d by bot", shown+1))
	})

	t.Run("test_oversized_body_is_cut", func(t *testing.T) {
		issue := issue42()
		issue.Body = strings.Repeat("long line of text\n", 200)

		out := packager.FormatIssue(issue, ceiling(1000))
		assert.LessOrEqual(t, len(out), 1000)
		assert.True(t, strings.HasPrefix(out, "# Issue #42: Crash on empty input\n"))
		assert.Contains(t, out, "[truncated: issue body exceeds the output limit, showing ")
		assert.Contains(t, out, "[3 of 3 comments omitted: output limit reached]\n")
		assert.NotContains(t, out, "### Comment")
	})

	t.Run("test_is_pure", func(t *testing.T) {
		issue := issue42()
		a := packager.FormatIssue(issue, ceiling(100_000))
		b := packager.FormatIssue(issue, ceiling(100_000))
		assert.Equal(t, a, b)
		assert.Equal(t, int64(3), issue.Comments[0].ID, "input comments should not be reordered")
	})
}

const patchA = "@@ -1,2 +1,2 @@\n hello\n-world\n+there\n"
const patchB = "@@ -0,0 +1 @@\n+new file"

func TestFormatDiff(t *testing.T) {
	t.Run("test_modified_and_added", func(t *testing.T) {
		out := packager.FormatDiff(remote.DiffResult{
			Base: "main",
			Head: "feature/x",
			Files: []remote.FileDiff{
				{Path: "a.txt", Status: remote.StatusModified, Additions: 1, Deletions: 1, Patch: patchA},
				{Path: "b.txt", Status: remote.StatusAdded, Additions: 1, Patch: patchB},
			},
		}, ceiling(100_000))

		want := "Diff: main...feature/x\n" +
			"Files changed: 2\n\n" +
			"=== a.txt (modified, +1 -1) ===\n" + patchA +
			"=== b.txt (added, +1 -0) ===\n" + patchB + "\n"
		assert.Equal(t, want, out)
	})

	t.Run("test_pull_request_rename_and_binary", func(t *testing.T) {
		out := packager.FormatDiff(remote.DiffResult{
			Base:        "main",
			Head:        "rename",
			PullRequest: 9,
			Files: []remote.FileDiff{
				{Path: "new.go", PreviousPath: "old.go", Status: remote.StatusRenamed},
				{Path: "logo.png", Status: remote.StatusModified},
			},
		}, ceiling(100_000))

		assert.True(t, strings.HasPrefix(out, "Pull request #9: main...rename\n"))
		assert.Contains(t, out, "=== new.go (renamed from old.go, +0 -0) ===\n(no textual patch available)\n")
		assert.Contains(t, out, "=== logo.png (modified, +0 -0) ===\n(no textual patch available)\n")
	})

	t.Run("test_no_changes", func(t *testing.T) {
		out := packager.FormatDiff(remote.DiffResult{Base: "main", Head: "main"}, ceiling(100_000))
		assert.Equal(t, "Diff: main...main\nFiles changed: 0\n\n(no changes)\n", out)
	})

	t.Run("test_oversized_sections_are_skipped_whole", func(t *testing.T) {
		huge := "@@ -1 +1 @@\n" + strings.Repeat("+x\n", 1000)
		out := packager.FormatDiff(remote.DiffResult{
			Base: "main",
			Head: "big",
			Files: []remote.FileDiff{
				{Path: "a.txt", Status: remote.StatusModified, Patch: patchA},
				{Path: "huge.txt", Status: remote.StatusModified, Patch: huge},
				{Path: "c.txt", Status: remote.StatusAdded, Patch: patchB},
			},
		}, ceiling(1000))

		assert.LessOrEqual(t, len(out), 1000)
		assert.Contains(t, out, "=== a.txt (modified, +0 -0) ===\n"+patchA)
		assert.Contains(t, out, "=== c.txt (added, +0 -0) ===\n"+patchB+"\n")
		assert.NotContains(t, out, "=== huge.txt")
		assert.True(t, strings.HasSuffix(out, "[truncated: output limit reached, 1 of 3 files omitted]\n- huge.txt\n"))
	})
}
