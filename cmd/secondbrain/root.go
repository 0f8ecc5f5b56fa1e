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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/secondbrain/cmd/secondbrain/commands"
	"github.com/walteh/secondbrain/cmd/secondbrain/opts"
	"github.com/walteh/secondbrain/pkg/remote"
)

// exit codes by failure kind
const (
	exitOK        = 0
	exitOther     = 1
	exitInvalid   = 2
	exitAuth      = 3
	exitNotFound  = 4
	exitRateLimit = 5
	exitNetwork   = 6
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch remote.KindOf(err) {
	case remote.KindInvalidInput:
		return exitInvalid
	case remote.KindAuth:
		return exitAuth
	case remote.KindNotFound:
		return exitNotFound
	case remote.KindRateLimit:
		return exitRateLimit
	case remote.KindNetwork:
		return exitNetwork
	default:
		return exitOther
	}
}

// newRootCmd builds the command tree over o
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	root := &cobra.Command{
		Use:   "secondbrain",
		Short: "Budget-aware retrieval of GitHub repository content",
		Long: `secondbrain fetches repository trees, file contents, issue threads and
diffs from GitHub as plain text that never exceeds a configured size.

The access token is read from GITHUB_PERSONAL_ACCESS_TOKEN (or the variable
named by token_env in .secondbrain.yaml), falling back to GITHUB_TOKEN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := o.Logger(cmd.Context())
			if err != nil {
				return remote.NewError(remote.KindInvalidInput, "configure logging", err)
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "config file path (default: .secondbrain.{yaml,yml,json,hcl} in the working directory)")
	root.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "report every fetched path on stderr")
	root.PersistentFlags().BoolVar(&o.JSONLogs, "json-logs", false, "write logs as JSON lines")
	root.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		commands.NewTreeCmd(o),
		commands.NewContentsCmd(o),
		commands.NewIssueCmd(o),
		commands.NewDiffCmd(o),
		commands.NewToolsCmd(o),
		commands.NewCallCmd(o),
		commands.NewPromptCmd(o),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(cmd.OutOrStdout(), FormatVersion())
			},
		},
	)
	return root
}
