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

import (
	"strconv"
	"strings"

	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// Args is the union of every tool's arguments.
type Args struct {
	Owner       string
	Repo        string
	Ref         string
	Path        string
	MaxDepth    *int
	FullDepth   bool
	IssueNumber int
	Base        string
	Head        string
	PRNumber    int
	Focus       string
}

func (a Args) RepoRef() remote.RepoRef {
	return remote.RepoRef{Owner: a.Owner, Name: a.Repo, Ref: a.Ref}
}

// Has reports whether the named argument was given.
func (a Args) Has(name string) bool {
	switch name {
	case "owner":
		return a.Owner != ""
	case "repo":
		return a.Repo != ""
	case "ref":
		return a.Ref != ""
	case "path":
		return a.Path != ""
	case "max_depth":
		return a.MaxDepth != nil
	case "full_depth":
		return a.FullDepth
	case "issue_number":
		return a.IssueNumber != 0
	case "base":
		return a.Base != ""
	case "head":
		return a.Head != ""
	case "pr_number":
		return a.PRNumber != 0
	case "focus":
		return a.Focus != ""
	default:
		return false
	}
}

// aliases accepted for compatibility with older tool names
var argAliases = map[string]string{
	"depth":    "max_depth",
	"base_ref": "base",
	"head_ref": "head",
	"issue":    "issue_number",
	"pr":       "pr_number",
}

// ParseArgs reads string key/value pairs, as given on a command line, into Args.
func ParseArgs(kv map[string]string) (Args, error) {
	var a Args
	for key, raw := range kv {
		name := strings.ToLower(strings.TrimSpace(key))
		if alias, ok := argAliases[name]; ok {
			name = alias
		}
		value := strings.TrimSpace(raw)

		var err error
		switch name {
		case "owner":
			a.Owner = value
		case "repo":
			a.Repo = value
		case "ref":
			a.Ref = value
		case "path":
			a.Path = value
		case "base":
			a.Base = value
		case "head":
			a.Head = value
		case "focus":
			a.Focus = value
		case "max_depth":
			var d int
			d, err = strconv.Atoi(value)
			a.MaxDepth = &d
		case "full_depth":
			a.FullDepth, err = strconv.ParseBool(value)
		case "issue_number":
			a.IssueNumber, err = strconv.Atoi(value)
		case "pr_number":
			a.PRNumber, err = strconv.Atoi(value)
		default:
			return Args{}, remote.NewError(remote.KindInvalidInput, "parse arguments", errors.Errorf("unknown argument %q", key))
		}
		if err != nil {
			return Args{}, remote.NewError(remote.KindInvalidInput, "parse arguments", errors.Errorf("argument %s: %w", key, err))
		}
	}
	return a, nil
}

// SplitPairs turns "key=value" strings into a map.
func SplitPairs(pairs []string) (map[string]string, error) {
	kv := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, remote.NewError(remote.KindInvalidInput, "parse arguments", errors.Errorf("expected key=value, got %q", p))
		}
		kv[k] = v
	}
	return kv, nil
}
