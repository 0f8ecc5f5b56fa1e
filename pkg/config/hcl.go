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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// hclConfig mirrors Config with every field optional, so absent attributes
// keep their defaults.
type hclConfig struct {
	BaseURL          *string   `hcl:"base_url,optional"`
	TokenEnv         *string   `hcl:"token_env,optional"`
	MaxOutputBytes   *int      `hcl:"max_output_bytes,optional"`
	Concurrency      *int      `hcl:"concurrency,optional"`
	CallTimeout      *string   `hcl:"call_timeout,optional"`
	RequestTimeout   *string   `hcl:"request_timeout,optional"`
	Retries          *int      `hcl:"retries,optional"`
	RetryBaseDelay   *string   `hcl:"retry_base_delay,optional"`
	Exclude          *[]string `hcl:"exclude,optional"`
	DefaultTreeDepth *int      `hcl:"default_tree_depth,optional"`

	RateLimit *struct {
		Mode    *string `hcl:"mode,optional"`
		MaxWait *string `hcl:"max_wait,optional"`
		Reserve *int    `hcl:"reserve,optional"`
	} `hcl:"rate_limit,block"`
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := Default()
	setString(&cfg.BaseURL, raw.BaseURL)
	setString(&cfg.TokenEnv, raw.TokenEnv)
	setInt(&cfg.MaxOutputBytes, raw.MaxOutputBytes)
	setInt(&cfg.Concurrency, raw.Concurrency)
	setInt(&cfg.Retries, raw.Retries)
	setInt(&cfg.DefaultTreeDepth, raw.DefaultTreeDepth)
	if raw.Exclude != nil {
		cfg.Exclude = *raw.Exclude
	}

	durations := []durationField{
		{&cfg.CallTimeout, raw.CallTimeout},
		{&cfg.RequestTimeout, raw.RequestTimeout},
		{&cfg.RetryBaseDelay, raw.RetryBaseDelay},
	}

	if raw.RateLimit != nil {
		setString(&cfg.RateLimit.Mode, raw.RateLimit.Mode)
		setInt(&cfg.RateLimit.Reserve, raw.RateLimit.Reserve)
		durations = append(durations, durationField{&cfg.RateLimit.MaxWait, raw.RateLimit.MaxWait})
	}

	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := parseDuration(*d.src)
		if err != nil {
			return nil, errors.Errorf("decoding HCL: %w", err)
		}
		*d.dst = v
	}

	return cfg, nil
}

type durationField struct {
	dst *Duration
	src *string
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
