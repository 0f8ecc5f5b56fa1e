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
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// Handler serves one tool call.
type Handler func(ctx context.Context, args Args) (string, error)

// Param documents one argument a tool accepts.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// 🔧 Tool is a named operation callable by name.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// 💡 Prompt is a named block of guidance text.
type Prompt struct {
	Name        string
	Description string
	Render      func(args Args) string
}

// 📚 Registry maps tool and prompt names to their implementations. It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	prompts map[string]Prompt
}

func NewRegistry() *Registry {
	return &Registry{
		tools:   map[string]Tool{},
		prompts: map[string]Prompt{},
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return errors.Errorf("tool %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name]; ok {
		return errors.Errorf("tool %s already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// RegisterPrompt adds a prompt. Names must be unique.
func (r *Registry) RegisterPrompt(p Prompt) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("prompt name is required")
	}
	if p.Render == nil {
		return errors.Errorf("prompt %s has no renderer", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prompts[p.Name]; ok {
		return errors.Errorf("prompt %s already registered", p.Name)
	}
	r.prompts[p.Name] = p
	return nil
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names lists registered tools alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PromptNames lists registered prompts alphabetically.
func (r *Registry) PromptNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named tool after checking its required arguments.
func (r *Registry) Call(ctx context.Context, name string, args Args) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return "", remote.NewError(remote.KindInvalidInput, "call tool", errors.Errorf("unknown tool %q, options: %s", name, strings.Join(r.Names(), ", ")))
	}

	for _, p := range t.Params {
		if p.Required && !args.Has(p.Name) {
			return "", remote.NewError(remote.KindInvalidInput, name, errors.Errorf("missing required argument %q", p.Name))
		}
	}

	zerolog.Ctx(ctx).Debug().Str("tool", name).Str("repo", args.RepoRef().String()).Msg("calling tool")
	return t.Handler(ctx, args)
}

// RenderPrompt returns the named prompt's text.
func (r *Registry) RenderPrompt(name string, args Args) (string, error) {
	r.mu.RLock()
	p, ok := r.prompts[name]
	r.mu.RUnlock()
	if !ok {
		return "", remote.NewError(remote.KindInvalidInput, "render prompt", errors.Errorf("unknown prompt %q, options: %s", name, strings.Join(r.PromptNames(), ", ")))
	}
	return p.Render(args), nil
}

var repoParams = []Param{
	{Name: "owner", Description: "repository owner (user or organization)", Required: true},
	{Name: "repo", Description: "repository name", Required: true},
	{Name: "ref", Description: "branch, tag or commit; defaults to the repository's default branch"},
}

func withRepo(params ...Param) []Param {
	return append(append([]Param(nil), repoParams...), params...)
}

func defaultRegistry(e *Engine) *Registry {
	r := NewRegistry()
	tools := []Tool{
		{
			Name:        ToolTree,
			Description: "Directory tree of a repository, directories first. Start here.",
			Params: withRepo(
				Param{Name: "max_depth", Description: "deepest level shown, 0 being top-level entries"},
				Param{Name: "full_depth", Description: "show every level"},
			),
			Handler: func(ctx context.Context, a Args) (string, error) {
				return e.GetTreeDirectory(ctx, a.RepoRef(), TreeRequest{MaxDepth: a.MaxDepth, FullDepth: a.FullDepth})
			},
		},
		{
			Name:        ToolContents,
			Description: "A file, or every file under a directory as labeled sections.",
			Params: withRepo(
				Param{Name: "path", Description: "file or directory; empty for the whole repository"},
			),
			Handler: func(ctx context.Context, a Args) (string, error) {
				return e.GetRepoContents(ctx, a.RepoRef(), a.Path)
			},
		},
		{
			Name:        ToolIssue,
			Description: "An issue or pull request conversation with all comments in order.",
			Params: append(repoParams[:2:2],
				Param{Name: "issue_number", Description: "issue or pull request number", Required: true},
			),
			Handler: func(ctx context.Context, a Args) (string, error) {
				return e.GetIssueContext(ctx, a.RepoRef(), a.IssueNumber)
			},
		},
		{
			Name:        ToolDiff,
			Description: "Per-file patches between two refs, or of a pull request.",
			Params: append(repoParams[:2:2],
				Param{Name: "base", Description: "base ref when comparing"},
				Param{Name: "head", Description: "head ref when comparing"},
				Param{Name: "pr_number", Description: "pull request number, instead of base and head"},
			),
			Handler: func(ctx context.Context, a Args) (string, error) {
				return e.GetCodeDiff(ctx, a.RepoRef(), DiffRequest{Base: a.Base, Head: a.Head, PullRequest: a.PRNumber})
			},
		},
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	if err := r.RegisterPrompt(Prompt{
		Name:        PromptAnalyze,
		Description: "Guidance for exploring a repository with the retrieval tools.",
		Render:      func(a Args) string { return AnalyzePrompt(a.Focus) },
	}); err != nil {
		panic(err)
	}
	return r
}

const (
	ToolTree     = "get_tree_directory"
	ToolContents = "get_repo_contents"
	ToolIssue    = "get_issue_context"
	ToolDiff     = "get_code_diff"

	PromptAnalyze = "analyze_repository"
)
