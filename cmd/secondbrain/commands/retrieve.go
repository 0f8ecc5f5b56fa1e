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

package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/walteh/secondbrain/cmd/secondbrain/opts"
	"github.com/walteh/secondbrain/pkg/engine"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// repoArg parses "owner/name[@ref]"; a --ref flag wins over the suffix.
func repoArg(cmd *cobra.Command, arg string) (remote.RepoRef, error) {
	ref, err := remote.ParseRepoRef(arg)
	if err != nil {
		return remote.RepoRef{}, err
	}
	if r, _ := cmd.Flags().GetString("ref"); r != "" {
		ref.Ref = r
	}
	return ref, nil
}

func addRefFlag(cmd *cobra.Command) {
	cmd.Flags().String("ref", "", "branch, tag or commit (default: the repository's default branch)")
}

// run builds the engine, runs fn and prints its output.
func run(o *opts.RootOpts, cmd *cobra.Command, op string, ref remote.RepoRef, fn func(e *engine.Engine) (string, error)) error {
	ctx := cmd.Context()
	e, err := o.Engine(ctx)
	if err != nil {
		return err
	}
	if o.Verbose {
		o.Reporter(ctx).Header(op, ref)
	}

	out, err := fn(e)
	if err != nil {
		return err
	}
	if o.Verbose && op == engine.ToolContents {
		o.Reporter(ctx).Summary()
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// NewTreeCmd creates the tree command
func NewTreeCmd(o *opts.RootOpts) *cobra.Command {
	var (
		depth int
		full  bool
	)
	cmd := &cobra.Command{
		Use:   "tree owner/repo[@ref]",
		Short: "Print the directory tree of a repository",
		Long: `Tree prints the repository layout, directories before files.
Depth 0 shows top-level entries only. Without --depth the configured
default_tree_depth applies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := repoArg(cmd, args[0])
			if err != nil {
				return err
			}
			req := engine.TreeRequest{FullDepth: full}
			if cmd.Flags().Changed("depth") {
				req.MaxDepth = &depth
			}
			return run(o, cmd, engine.ToolTree, ref, func(e *engine.Engine) (string, error) {
				return e.GetTreeDirectory(cmd.Context(), ref, req)
			})
		},
	}
	addRefFlag(cmd)
	cmd.Flags().IntVar(&depth, "depth", 0, "deepest level shown, 0 being top-level entries")
	cmd.Flags().BoolVar(&full, "full", false, "show every level")
	return cmd
}

// NewContentsCmd creates the contents command
func NewContentsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contents owner/repo[@ref] [path]",
		Short: "Print a file, or every file under a directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := repoArg(cmd, args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return run(o, cmd, engine.ToolContents, ref, func(e *engine.Engine) (string, error) {
				return e.GetRepoContents(cmd.Context(), ref, path)
			})
		},
	}
	addRefFlag(cmd)
	return cmd
}

// NewIssueCmd creates the issue command
func NewIssueCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "issue owner/repo number",
		Short: "Print an issue or pull request conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := remote.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return remote.NewError(remote.KindInvalidInput, "parse issue number", errors.Errorf("%q is not a number", args[1]))
			}
			return run(o, cmd, engine.ToolIssue, ref, func(e *engine.Engine) (string, error) {
				return e.GetIssueContext(cmd.Context(), ref, number)
			})
		},
	}
}

// NewDiffCmd creates the diff command
func NewDiffCmd(o *opts.RootOpts) *cobra.Command {
	var req engine.DiffRequest
	cmd := &cobra.Command{
		Use:   "diff owner/repo (--base ref --head ref | --pr number)",
		Short: "Print per-file patches between two refs or of a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := remote.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			return run(o, cmd, engine.ToolDiff, ref, func(e *engine.Engine) (string, error) {
				return e.GetCodeDiff(cmd.Context(), ref, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.Base, "base", "", "base ref")
	cmd.Flags().StringVar(&req.Head, "head", "", "head ref")
	cmd.Flags().IntVar(&req.PullRequest, "pr", 0, "pull request number")
	cmd.MarkFlagsRequiredTogether("base", "head")
	cmd.MarkFlagsMutuallyExclusive("base", "pr")
	return cmd
}
