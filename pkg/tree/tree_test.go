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

package tree_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
	"github.com/walteh/secondbrain/pkg/remote/remotetest"
	"github.com/walteh/secondbrain/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

var octo = remote.RepoRef{Owner: "octo", Name: "hello"}

func sampleFiles() map[string]string {
	return map[string]string{
		"README.md":       "# hello",
		"LICENSE":         "MIT",
		"src/app.py":      "print('hi')",
		"src/lib/util.py": "pass",
		"docs/guide.md":   "guide",
	}
}

func depth(d int) *int {
	return &d
}

func TestBuild(t *testing.T) {
	t.Run("test_canonical_order", func(t *testing.T) {
		root, errs := tree.Build([]remote.TreeEntry{
			{Path: "zeta.txt", Type: remote.EntryFile},
			{Path: "b/inner.txt", Type: remote.EntryFile},
			{Path: "alpha.txt", Type: remote.EntryFile},
			{Path: "a", Type: remote.EntryDir},
		})
		require.Empty(t, errs)

		names := []string{}
		for _, c := range root.Children {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"a", "b", "alpha.txt", "zeta.txt"}, names, "directories should precede files")
	})

	t.Run("test_file_directory_collision_is_skipped", func(t *testing.T) {
		root, errs := tree.Build([]remote.TreeEntry{
			{Path: "a", Type: remote.EntryFile, Size: 3},
			{Path: "a/b.txt", Type: remote.EntryFile},
			{Path: "c/d.txt", Type: remote.EntryFile},
			{Path: "c", Type: remote.EntryFile},
		})
		require.Len(t, errs, 2, "both contradicting entries should be reported")
		for _, err := range errs {
			assert.Equal(t, remote.KindDataInconsistency, remote.KindOf(err))
		}

		a := root.Find("a")
		require.NotNil(t, a)
		assert.Equal(t, remote.EntryFile, a.Type, "first entry should win")
		assert.Empty(t, a.Children)
		assert.Equal(t, remote.EntryDir, root.Find("c").Type)
		assert.Equal(t, 3, root.Len())
	})

	t.Run("test_duplicate_entries_merge", func(t *testing.T) {
		root, errs := tree.Build([]remote.TreeEntry{
			{Path: "src", Type: remote.EntryDir},
			{Path: "src/a.go", Type: remote.EntryFile, Size: 1},
			{Path: "src", Type: remote.EntryDir},
			{Path: "src/a.go", Type: remote.EntryFile, Size: 2},
		})
		require.Empty(t, errs)
		assert.Equal(t, 2, root.Len())
		assert.Equal(t, int64(2), root.Find("src/a.go").Size)
	})
}

func TestResolve(t *testing.T) {
	root, errs := tree.Build([]remote.TreeEntry{
		{Path: "docs/guide.md", Type: remote.EntryFile},
		{Path: "Docs/Guide.md", Type: remote.EntryFile},
		{Path: "README.md", Type: remote.EntryFile},
	})
	require.Empty(t, errs)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "exact_match", path: "docs/guide.md", want: "docs/guide.md"},
		{name: "exact_match_other_case", path: "Docs/Guide.md", want: "Docs/Guide.md"},
		{name: "case_insensitive_lexical_first", path: "DOCS/GUIDE.MD", want: "Docs/Guide.md"},
		{name: "case_insensitive_file", path: "readme.md", want: "README.md"},
		{name: "missing", path: "nope", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := root.Resolve(tt.path)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Path)
		})
	}
}

func TestBuildTree(t *testing.T) {
	providers := []struct {
		name string
		make func(p *remotetest.Provider) remote.Provider
	}{
		{name: "recursive", make: func(p *remotetest.Provider) remote.Provider { return remotetest.Recursive(p) }},
		{name: "breadth_first", make: func(p *remotetest.Provider) remote.Provider { return p }},
	}

	for _, pp := range providers {
		t.Run(pp.name, func(t *testing.T) {
			t.Run("test_depth_zero_lists_top_level_only", func(t *testing.T) {
				fake := remotetest.New(sampleFiles())
				root, err := tree.NewBuilder(pp.make(fake), 4).BuildTree(context.Background(), octo, depth(0))
				require.NoError(t, err)

				want := "Directory structure:\n" +
					"octo/hello/\n" +
					"  docs/\n" +
					"  src/\n" +
					"  LICENSE\n" +
					"  README.md\n"
				assert.Equal(t, want, tree.Render(root, tree.RenderOptions{Root: "octo/hello"}))
				assert.Equal(t, 1, fake.Calls(), "depth zero needs a single listing call")
			})

			t.Run("test_unlimited_depth", func(t *testing.T) {
				fake := remotetest.New(sampleFiles())
				root, err := tree.NewBuilder(pp.make(fake), 4).BuildTree(context.Background(), octo, nil)
				require.NoError(t, err)

				want := "Directory structure:\n" +
					"octo/hello/\n" +
					"  docs/\n" +
					"    guide.md\n" +
					"  src/\n" +
					"    lib/\n" +
					"      util.py\n" +
					"    app.py\n" +
					"  LICENSE\n" +
					"  README.md\n"
				got := tree.Render(root, tree.RenderOptions{Root: "octo/hello"})
				assert.Equal(t, want, got)
				assert.Equal(t, got, tree.Render(root, tree.RenderOptions{Root: "octo/hello"}), "rendering should be idempotent")
			})

			t.Run("test_depth_one", func(t *testing.T) {
				fake := remotetest.New(sampleFiles())
				root, err := tree.NewBuilder(pp.make(fake), 4).BuildTree(context.Background(), octo, depth(1))
				require.NoError(t, err)
				assert.NotNil(t, root.Find("src/app.py"))
				assert.NotNil(t, root.Find("src/lib"))
				assert.Nil(t, root.Find("src/lib/util.py"), "entries below the limit should be left out")
			})
		})
	}
}

func TestBuildTreeDegrades(t *testing.T) {
	t.Run("test_truncated_listing_falls_back_to_expansion", func(t *testing.T) {
		fake := remotetest.New(sampleFiles())
		fake.Truncated = true
		root, err := tree.NewBuilder(remotetest.Recursive(fake), 2).BuildTree(context.Background(), octo, nil)
		require.NoError(t, err)
		assert.NotNil(t, root.Find("src/lib/util.py"))
		assert.False(t, root.Incomplete)
		assert.Contains(t, fake.Requests(), "list_entries src/lib")
	})

	t.Run("test_failed_subdirectory_marks_incomplete", func(t *testing.T) {
		fake := remotetest.New(sampleFiles())
		fake.Fail["src"] = remote.NewError(remote.KindNetwork, "list entries", errors.New("timeout"))
		root, err := tree.NewBuilder(fake, 2).BuildTree(context.Background(), octo, nil)
		require.NoError(t, err, "a failed subdirectory should not fail the tree")
		assert.True(t, root.Incomplete)
		assert.NotNil(t, root.Find("docs/guide.md"))

		out := tree.Render(root, tree.RenderOptions{Root: "octo/hello"})
		assert.Contains(t, out, "  src/\n")
		assert.Contains(t, out, "(Listing incomplete")
	})

	t.Run("test_failed_root_fails", func(t *testing.T) {
		fake := remotetest.New(sampleFiles())
		fake.Fail[""] = remote.NewError(remote.KindNotFound, "list entries", errors.New("no such ref"))
		_, err := tree.NewBuilder(fake, 2).BuildTree(context.Background(), octo, nil)
		require.Error(t, err)
		assert.Equal(t, remote.KindNotFound, remote.KindOf(err))
	})

	t.Run("test_auth_failure_aborts", func(t *testing.T) {
		fake := remotetest.New(sampleFiles())
		fake.Fail["docs"] = remote.NewError(remote.KindAuth, "list entries", errors.New("bad credentials"))
		_, err := tree.NewBuilder(fake, 2).BuildTree(context.Background(), octo, nil)
		require.Error(t, err)
		assert.Equal(t, remote.KindAuth, remote.KindOf(err))
	})

	t.Run("test_empty_repository", func(t *testing.T) {
		fake := remotetest.New(nil)
		root, err := tree.NewBuilder(remotetest.Recursive(fake), 2).BuildTree(context.Background(), octo, nil)
		require.NoError(t, err)
		assert.Equal(t, "Directory structure:\nocto/hello/\n  (Repository is empty)\n", tree.Render(root, tree.RenderOptions{Root: "octo/hello"}))
	})
}

func TestRender(t *testing.T) {
	t.Run("test_exclude_hides_subtrees", func(t *testing.T) {
		root, _ := tree.Build([]remote.TreeEntry{
			{Path: "vendor/x/y.go", Type: remote.EntryFile},
			{Path: "main.go", Type: remote.EntryFile},
			{Path: "main_test.go", Type: remote.EntryFile},
		})
		got := tree.Render(root, tree.RenderOptions{Root: "octo/hello", Exclude: []string{"vendor", "*_test.go"}})
		assert.Equal(t, "Directory structure:\nocto/hello/\n  main.go\n", got)
	})

	t.Run("test_guard_bounds_output", func(t *testing.T) {
		var entries []remote.TreeEntry
		for i := 0; i < 100; i++ {
			entries = append(entries, remote.TreeEntry{Path: fmt.Sprintf("file-%03d.txt", i), Type: remote.EntryFile})
		}
		root, _ := tree.Build(entries)

		g := guard.New(nil, guard.Options{MaxOutputBytes: 400})
		got := tree.Render(root, tree.RenderOptions{Root: "octo/hello", Guard: g})

		assert.LessOrEqual(t, len(got), 400, "rendered tree should respect the ceiling")
		assert.Contains(t, got, "[truncated: tree exceeds the output limit")
		assert.True(t, strings.HasPrefix(got, "Directory structure:\nocto/hello/\n  file-000.txt\n"))
	})
}
