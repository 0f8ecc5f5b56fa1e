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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/secondbrain/pkg/contents"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

func TestReporter(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(r *Reporter)
		wantLogs []string
	}{
		{
			name: "fetched_file",
			op: func(r *Reporter) {
				r.Observe(contents.Event{Kind: contents.EventFetched, Path: "README.md", Size: 1200})
			},
			wantLogs: []string{
				"    ✓ README.md                                fetched   1.2 kB",
			},
		},
		{
			name: "every_kind",
			op: func(r *Reporter) {
				r.Observe(contents.Event{Kind: contents.EventBinary, Path: "logo.png", Size: 29})
				r.Observe(contents.Event{Kind: contents.EventOmitted, Path: "big.txt", Size: 4000})
				r.Observe(contents.Event{Kind: contents.EventFailed, Path: "b.txt", Err: remote.NewError(remote.KindNetwork, "get blob", errors.New("timeout"))})
			},
			wantLogs: []string{
				"    • logo.png                                 binary    29 B",
				"    - big.txt                                  omitted   over limit",
				"    ✗ b.txt                                    failed    network",
			},
		},
		{
			name: "header_and_summary",
			op: func(r *Reporter) {
				r.Header("get_repo_contents", remote.RepoRef{Owner: "octo", Name: "hello"})
				r.Observe(contents.Event{Kind: contents.EventFetched, Path: "a", Size: 10})
				r.Observe(contents.Event{Kind: contents.EventFetched, Path: "b", Size: 20})
				r.Observe(contents.Event{Kind: contents.EventOmitted, Path: "c", Size: 30})
				r.Summary()
			},
			wantLogs: []string{
				"◆ octo/hello • get_repo_contents",
				"■ 2 fetched (30 B), 0 binary, 1 omitted, 0 failed",
			},
		},
		{
			name: "error",
			op: func(r *Reporter) {
				r.Error(remote.NewError(remote.KindAuth, "create github client", errors.New("no access token configured")))
			},
			wantLogs: []string{
				"❌ auth create github client: auth: no access token configured",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console bytes.Buffer
			r := NewReporter(&console, zerolog.Nop())
			tt.op(r)

			lines := strings.Split(strings.TrimSuffix(console.String(), "\n"), "\n")
			for i := range lines {
				lines[i] = strings.TrimRight(lines[i], " ")
			}
			for _, want := range tt.wantLogs {
				assert.Contains(t, lines, want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json_output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, zerolog.InfoLevel, false)
		logger.Debug().Msg("hidden")
		logger.Info().Str("repo", "octo/hello").Msg("shown")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
		assert.Equal(t, "shown", rec["message"])
		assert.Equal(t, "octo/hello", rec["repo"])
		assert.Equal(t, "info", rec["level"])
	})

	t.Run("pretty_output", func(t *testing.T) {
		color.NoColor = true
		defer func() { color.NoColor = false }()

		var buf bytes.Buffer
		logger := New(&buf, zerolog.DebugLevel, true)
		logger.Debug().Msg("pretty")
		assert.Contains(t, buf.String(), "DBG pretty")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run("level_"+strings.TrimSpace(tt.in), func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
