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

package opts

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/config"
	"github.com/walteh/secondbrain/pkg/engine"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/log"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// ProviderFactory builds the remote client for a request.
type ProviderFactory func(ctx context.Context, opts remote.ClientOptions) (remote.Provider, error)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Dir        string
	Debug      bool
	Verbose    bool
	JSONLogs   bool
	LogLevel   string

	Stderr      io.Writer
	Getenv      func(string) string
	NewProvider ProviderFactory

	budget   *guard.Budget
	reporter *log.Reporter
}

// Default returns options reading the real environment and talking to GitHub.
func Default() *RootOpts {
	return &RootOpts{
		Dir:    ".",
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		NewProvider: func(ctx context.Context, opts remote.ClientOptions) (remote.Provider, error) {
			return remote.NewProvider(ctx, "github", opts)
		},
		budget: guard.NewBudget(),
	}
}

// Logger attaches the configured logger to ctx.
func (o *RootOpts) Logger(ctx context.Context) (context.Context, error) {
	level, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return ctx, err
	}
	if o.Debug {
		level = zerolog.DebugLevel
	}
	logger := log.New(o.Stderr, level, !o.JSONLogs)
	return logger.WithContext(ctx), nil
}

// Config loads the config file named by --config, or finds one in Dir.
func (o *RootOpts) Config(ctx context.Context) (*config.Config, error) {
	if o.ConfigFile != "" {
		return config.Load(ctx, o.ConfigFile)
	}
	return config.Find(ctx, o.Dir)
}

// Engine wires config, credential, guard and provider together.
func (o *RootOpts) Engine(ctx context.Context) (*engine.Engine, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := o.Config(ctx)
	if err != nil {
		return nil, remote.NewError(remote.KindInvalidInput, "load config", err)
	}
	logger.Debug().Str("config", cfg.String()).Msg("loaded configuration")

	token, source := cfg.Token(o.Getenv)
	if token == "" {
		return nil, remote.NewError(remote.KindAuth, "read credential", errors.Errorf("set %s or %s", cfg.TokenEnv, config.FallbackToken))
	}
	logger.Debug().Str("env", source).Msg("using access token from environment")

	if o.budget == nil {
		o.budget = guard.NewBudget()
	}
	g := guard.New(o.budget, cfg.GuardOptions())

	provider, err := o.NewProvider(ctx, cfg.ClientOptions(token, g))
	if err != nil {
		return nil, errors.Errorf("creating provider: %w", err)
	}

	engineOpts := cfg.EngineOptions()
	if o.Verbose {
		engineOpts.Observer = o.Reporter(ctx).Observe
	}
	return engine.New(provider, g, engineOpts), nil
}

// Reporter returns the console reporter, creating it on first use.
func (o *RootOpts) Reporter(ctx context.Context) *log.Reporter {
	if o.reporter == nil {
		o.reporter = log.NewReporter(o.Stderr, *zerolog.Ctx(ctx))
	}
	return o.reporter
}

// Catalog lists tools and prompts without a credential or provider.
func (o *RootOpts) Catalog() *engine.Registry {
	return engine.New(nil, guard.New(nil, guard.Options{}), engine.Options{}).Registry()
}
