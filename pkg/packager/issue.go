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

// Package packager formats already fetched issues and diffs into bounded
// text. Nothing here touches the network.
package packager

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
)

// FormatIssue renders an issue and its comments in chronological order.
// Comments that do not fit under the ceiling are dropped from the end and
// counted in a footer.
func FormatIssue(issue remote.IssueContext, g *guard.Guard) string {
	reserve := g.MarkerReserve()
	acc := g.Accumulate(reserve)

	head := issueHeader(issue)
	if !acc.Add(head) {
		cut := guard.CutAtLine(head, acc.Remaining())
		acc.Add(cut)
		return acc.String() + guard.Marker(fmt.Sprintf("issue body exceeds the output limit, showing %d of %d bytes", len(cut), len(head)), nil, reserve) +
			omittedFooter(len(issue.Comments), len(issue.Comments))
	}

	comments := append([]remote.Comment(nil), issue.Comments...)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	if len(comments) == 0 {
		acc.Add("\n## Comments\n\n(no comments)\n")
		return acc.String()
	}

	acc.Add("\n## Comments\n")
	for i, c := range comments {
		if !acc.Add(commentBlock(i+1, c)) {
			return acc.String() + omittedFooter(len(comments)-i, len(comments))
		}
	}
	return acc.String()
}

func issueHeader(issue remote.IssueContext) string {
	kind := "Issue"
	if issue.IsPullRequest {
		kind = "Pull Request"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s #%d: %s\n\n", kind, issue.Number, issue.Title)
	fmt.Fprintf(&b, "State: %s\n", issue.State)
	fmt.Fprintf(&b, "Author: %s\n", orUnknown(issue.Author))
	fmt.Fprintf(&b, "Created: %s\n", timestamp(issue.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", timestamp(issue.UpdatedAt))
	if issue.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", issue.URL)
	}
	fmt.Fprintf(&b, "Comments: %d\n", len(issue.Comments))

	b.WriteString("\n## Body\n\n")
	if body := strings.TrimSpace(issue.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	} else {
		b.WriteString("(no description)\n")
	}
	return b.String()
}

func commentBlock(n int, c remote.Comment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n### Comment %d by %s at %s\n\n", n, orUnknown(c.Author), timestamp(c.CreatedAt))
	if body := strings.TrimSpace(c.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	} else {
		b.WriteString("(empty comment)\n")
	}
	return b.String()
}

func omittedFooter(omitted, total int) string {
	if omitted == 0 {
		return ""
	}
	return fmt.Sprintf("\n[%d of %d comments omitted: output limit reached]\n", omitted, total)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
