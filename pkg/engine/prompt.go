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

package engine

import "strings"

const defaultFocus = "decide what matters most for the question at hand"

const analyzeGuide = `You are an experienced software engineer studying a GitHub repository.
Four retrieval tools are available. Pick them as the investigation requires.

get_tree_directory(owner, repo, [ref], [max_depth], [full_depth])
  Start here to learn the layout. max_depth 0 shows top-level entries only;
  raise it, or set full_depth, once you know which areas matter.

get_repo_contents(owner, repo, [path], [ref])
  Read one file, or every file under a directory as labeled sections.
  Output is size-bounded: prefer narrow paths over the whole repository.

get_issue_context(owner, repo, issue_number)
  Read an issue or pull request conversation with its comments in order.

get_code_diff(owner, repo, [pr_number] | [base, head])
  See what changed in a pull request or between two refs, file by file.

Let each result decide the next call. Truncation markers tell you what was
left out; follow up with a narrower request instead of repeating a broad one.
`

// AnalyzePrompt returns guidance for exploring a repository with the tools.
func AnalyzePrompt(focus string) string {
	focus = strings.TrimSpace(focus)
	if focus == "" {
		focus = defaultFocus
	}
	return analyzeGuide + "\nFocus area: " + focus + "\n"
}
