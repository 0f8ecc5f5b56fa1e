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

package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/engine"
	"github.com/walteh/secondbrain/pkg/guard"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultBaseURL  = "https://api.github.com/"
	DefaultTokenEnv = "GITHUB_PERSONAL_ACCESS_TOKEN"
	FallbackToken   = "GITHUB_TOKEN"

	MinConcurrency = 1
	MaxConcurrency = 16
)

// FileNames are searched in order by Find.
var FileNames = []string{
	".secondbrain.yaml",
	".secondbrain.yml",
	".secondbrain.json",
	".secondbrain.hcl",
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes data over the defaults
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⏱️ RateLimit controls what happens when the API budget runs low.
type RateLimit struct {
	Mode    string   `json:"mode" yaml:"mode"`
	MaxWait Duration `json:"max_wait" yaml:"max_wait"`
	Reserve int      `json:"reserve" yaml:"reserve"`
}

// 📚 Config represents the complete configuration
type Config struct {
	BaseURL          string    `json:"base_url" yaml:"base_url"`
	TokenEnv         string    `json:"token_env" yaml:"token_env"`
	MaxOutputBytes   int       `json:"max_output_bytes" yaml:"max_output_bytes"`
	RateLimit        RateLimit `json:"rate_limit" yaml:"rate_limit"`
	Concurrency      int       `json:"concurrency" yaml:"concurrency"`
	CallTimeout      Duration  `json:"call_timeout" yaml:"call_timeout"`
	RequestTimeout   Duration  `json:"request_timeout" yaml:"request_timeout"`
	Retries          int       `json:"retries" yaml:"retries"`
	RetryBaseDelay   Duration  `json:"retry_base_delay" yaml:"retry_base_delay"`
	Exclude          []string  `json:"exclude" yaml:"exclude"`
	DefaultTreeDepth int       `json:"default_tree_depth" yaml:"default_tree_depth"`

	location string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		TokenEnv:       DefaultTokenEnv,
		MaxOutputBytes: guard.DefaultMaxOutputBytes,
		RateLimit: RateLimit{
			Mode:    string(guard.ModeBlock),
			MaxWait: Duration(guard.DefaultMaxWait),
		},
		Concurrency:    6,
		CallTimeout:    Duration(15 * time.Second),
		RequestTimeout: Duration(60 * time.Second),
		Retries:        3,
		RetryBaseDelay: Duration(250 * time.Millisecond),
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(filepath.Base(path))
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Find loads the first of FileNames present in dir. With none present the
// defaults apply.
func Find(ctx context.Context, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Errorf("checking %s: %w", path, err)
		}
		return Load(ctx, path)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	cfg := Default()
	return cfg, cfg.Validate()
}

// Location is the file the config was read from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks the configuration and normalizes what it can.
// Concurrency is clamped rather than rejected.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("base_url must be an http(s) URL, got %q", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.TokenEnv) == "" {
		return errors.Errorf("token_env is required")
	}
	if cfg.MaxOutputBytes <= 0 {
		return errors.Errorf("max_output_bytes must be positive, got %d", cfg.MaxOutputBytes)
	}

	switch guard.Mode(cfg.RateLimit.Mode) {
	case guard.ModeBlock, guard.ModeFail:
	default:
		return errors.Errorf("rate_limit.mode must be %q or %q, got %q", guard.ModeBlock, guard.ModeFail, cfg.RateLimit.Mode)
	}
	if cfg.RateLimit.MaxWait < 0 {
		return errors.Errorf("rate_limit.max_wait must not be negative")
	}
	if cfg.RateLimit.Reserve < 0 {
		return errors.Errorf("rate_limit.reserve must not be negative")
	}

	if cfg.Concurrency < MinConcurrency {
		cfg.Concurrency = MinConcurrency
	}
	if cfg.Concurrency > MaxConcurrency {
		cfg.Concurrency = MaxConcurrency
	}

	if cfg.CallTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return errors.Errorf("call_timeout and request_timeout must be positive")
	}
	if cfg.CallTimeout >= cfg.RequestTimeout {
		return errors.Errorf("call_timeout (%s) must be shorter than request_timeout (%s)", cfg.CallTimeout, cfg.RequestTimeout)
	}
	if cfg.Retries < 1 {
		return errors.Errorf("retries must be at least 1, got %d", cfg.Retries)
	}
	if cfg.RetryBaseDelay <= 0 {
		return errors.Errorf("retry_base_delay must be positive")
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return nil
}

// Token returns the access token from the environment and the variable it
// came from. An empty token is not an error here; the client refuses it.
func (cfg *Config) Token(getenv func(string) string) (token string, source string) {
	for _, name := range []string{cfg.TokenEnv, FallbackToken} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, name
		}
	}
	return "", ""
}

// GuardOptions converts the output and rate settings.
func (cfg *Config) GuardOptions() guard.Options {
	return guard.Options{
		MaxOutputBytes: cfg.MaxOutputBytes,
		Mode:           guard.Mode(cfg.RateLimit.Mode),
		MaxWait:        cfg.RateLimit.MaxWait.Std(),
		Reserve:        cfg.RateLimit.Reserve,
	}
}

// ClientOptions converts the remote client settings.
func (cfg *Config) ClientOptions(token string, pacer remote.Pacer) remote.ClientOptions {
	return remote.ClientOptions{
		BaseURL:        cfg.BaseURL,
		Token:          token,
		Pacer:          pacer,
		Retries:        cfg.Retries,
		RetryBaseDelay: cfg.RetryBaseDelay.Std(),
		CallTimeout:    cfg.CallTimeout.Std(),
	}
}

// EngineOptions converts the request settings.
func (cfg *Config) EngineOptions() engine.Options {
	return engine.Options{
		Concurrency:      cfg.Concurrency,
		Exclude:          cfg.Exclude,
		RequestTimeout:   cfg.RequestTimeout.Std(),
		DefaultTreeDepth: cfg.DefaultTreeDepth,
	}
}

// 📝 String summarizes the config without secrets
func (cfg *Config) String() string {
	src := cfg.location
	if src == "" {
		src = "defaults"
	}
	return fmt.Sprintf("%s (%s, max %d bytes, %s mode, concurrency %d)", cfg.BaseURL, src, cfg.MaxOutputBytes, cfg.RateLimit.Mode, cfg.Concurrency)
}
