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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/secondbrain/cmd/secondbrain/opts"
	"github.com/walteh/secondbrain/pkg/engine"
)

// NewToolsCmd creates the tools command
func NewToolsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the callable tools and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := o.Catalog()
			w := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				tool, _ := reg.Lookup(name)
				fmt.Fprintf(w, "%s\n  %s\n", color.New(color.Bold).Sprint(tool.Name), tool.Description)
				for _, p := range tool.Params {
					req := ""
					if p.Required {
						req = color.New(color.FgYellow).Sprint(" (required)")
					}
					fmt.Fprintf(w, "    %-14s %s%s\n", p.Name, p.Description, req)
				}
			}
			for _, name := range reg.PromptNames() {
				fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint(name), color.New(color.Faint).Sprint("(prompt)"))
			}
			return nil
		},
	}
}

// NewCallCmd creates the call command
func NewCallCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "call tool [key=value ...]",
		Short: "Call a tool by name",
		Long: `Call runs a tool the way an AI client would, with arguments given
as key=value pairs, for example:

  secondbrain call get_repo_contents owner=octo repo=hello path=src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := engine.SplitPairs(args[1:])
			if err != nil {
				return err
			}
			a, err := engine.ParseArgs(kv)
			if err != nil {
				return err
			}
			return run(o, cmd, args[0], a.RepoRef(), func(e *engine.Engine) (string, error) {
				return e.Registry().Call(cmd.Context(), args[0], a)
			})
		},
	}
}

// NewPromptCmd creates the prompt command
func NewPromptCmd(o *opts.RootOpts) *cobra.Command {
	var focus string
	cmd := &cobra.Command{
		Use:   "prompt [name]",
		Short: "Print a guidance prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := engine.PromptAnalyze
			if len(args) == 1 {
				name = args[0]
			}
			out, err := o.Catalog().RenderPrompt(name, engine.Args{Focus: strings.TrimSpace(focus)})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&focus, "focus", "", "what the analysis should concentrate on")
	return cmd
}
