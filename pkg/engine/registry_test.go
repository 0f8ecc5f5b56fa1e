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

package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/secondbrain/pkg/engine"
	"github.com/walteh/secondbrain/pkg/remote"
	"github.com/walteh/secondbrain/pkg/remote/remotetest"
)

func TestRegistry(t *testing.T) {
	t.Run("test_default_tools", func(t *testing.T) {
		r := newEngine(newFake(), engine.Options{}).Registry()
		assert.Equal(t, []string{
			engine.ToolDiff,
			engine.ToolIssue,
			engine.ToolContents,
			engine.ToolTree,
		}, r.Names())
		assert.Equal(t, []string{engine.PromptAnalyze}, r.PromptNames())

		tool, ok := r.Lookup(engine.ToolIssue)
		require.True(t, ok)
		require.Len(t, tool.Params, 3)
		assert.Equal(t, "issue_number", tool.Params[2].Name)
		assert.True(t, tool.Params[2].Required)
	})

	t.Run("test_call_dispatches", func(t *testing.T) {
		r := newEngine(remotetest.Recursive(newFake()), engine.Options{}).Registry()
		out, err := r.Call(context.Background(), engine.ToolTree, engine.Args{Owner: "octo", Repo: "hello", MaxDepth: depth(0)})
		require.NoError(t, err)
		assert.Equal(t, "Directory structure:\nocto/hello/\n  docs/\n  src/\n  README.md\n", out)

		out, err = r.Call(context.Background(), engine.ToolContents, engine.Args{Owner: "octo", Repo: "hello", Path: "docs"})
		require.NoError(t, err)
		assert.Equal(t, "=== docs/guide.md ===\nguide\n\n", out)
	})

	t.Run("test_unknown_tool", func(t *testing.T) {
		r := newEngine(newFake(), engine.Options{}).Registry()
		_, err := r.Call(context.Background(), "get_everything", engine.Args{})
		require.Error(t, err)
		assert.Equal(t, remote.KindInvalidInput, remote.KindOf(err))
		assert.Contains(t, err.Error(), "get_code_diff, get_issue_context")
	})

	t.Run("test_missing_required_argument", func(t *testing.T) {
		fake := newFake()
		r := newEngine(fake, engine.Options{}).Registry()
		_, err := r.Call(context.Background(), engine.ToolIssue, engine.Args{Owner: "octo", Repo: "hello"})
		require.Error(t, err)
		assert.Equal(t, remote.KindInvalidInput, remote.KindOf(err))
		assert.Contains(t, err.Error(), "issue_number")
		assert.Equal(t, 0, fake.Calls())
	})

	t.Run("test_duplicate_registration", func(t *testing.T) {
		r := engine.NewRegistry()
		tool := engine.Tool{Name: "echo", Handler: func(ctx context.Context, a engine.Args) (string, error) { return a.Path, nil }}
		require.NoError(t, r.Register(tool))
		assert.Error(t, r.Register(tool))
		assert.Error(t, r.Register(engine.Tool{Name: "nohandler"}))
		assert.Error(t, r.Register(engine.Tool{Handler: tool.Handler}))

		out, err := r.Call(context.Background(), "echo", engine.Args{Path: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", out)
	})

	t.Run("test_render_prompt", func(t *testing.T) {
		r := newEngine(newFake(), engine.Options{}).Registry()
		out, err := r.RenderPrompt(engine.PromptAnalyze, engine.Args{Focus: "error handling"})
		require.NoError(t, err)
		for _, name := range r.Names() {
			assert.Contains(t, out, name+"(")
		}
		assert.True(t, strings.HasSuffix(out, "Focus area: error handling\n"))

		_, err = r.RenderPrompt("nope", engine.Args{})
		assert.Equal(t, remote.KindInvalidInput, remote.KindOf(err))
	})
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    engine.Args
		wantErr bool
	}{
		{
			name:  "repository_and_path",
			pairs: []string{"owner=octo", "repo=hello", "path=src/app.py", "ref=v1"},
			want:  engine.Args{Owner: "octo", Repo: "hello", Path: "src/app.py", Ref: "v1"},
		},
		{
			name:  "numbers_and_flags",
			pairs: []string{"max_depth=2", "full_depth=true", "issue_number=42", "pr_number=9"},
			want:  engine.Args{MaxDepth: depth(2), FullDepth: true, IssueNumber: 42, PRNumber: 9},
		},
		{
			name:  "aliases",
			pairs: []string{"depth=1", "base_ref=main", "head_ref=feature/x"},
			want:  engine.Args{MaxDepth: depth(1), Base: "main", Head: "feature/x"},
		},
		{
			name:  "value_may_contain_equals",
			pairs: []string{"focus=a=b"},
			want:  engine.Args{Focus: "a=b"},
		},
		{
			name:    "not_a_number",
			pairs:   []string{"issue_number=forty-two"},
			wantErr: true,
		},
		{
			name:    "unknown_argument",
			pairs:   []string{"color=blue"},
			wantErr: true,
		},
		{
			name:    "missing_equals",
			pairs:   []string{"owner"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := engine.SplitPairs(tt.pairs)
			if err == nil {
				var args engine.Args
				args, err = engine.ParseArgs(kv)
				if err == nil {
					require.False(t, tt.wantErr)
					assert.Equal(t, tt.want, args)
					return
				}
			}
			require.True(t, tt.wantErr, "unexpected error: %v", err)
			assert.Equal(t, remote.KindInvalidInput, remote.KindOf(err))
		})
	}
}
