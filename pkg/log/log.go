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
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/pkg/contents"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 40 // Base width for the path
	kindWidth  = 9  // Width for the event kind
)

// 🏭 New creates the structured logger. Pretty output goes through a
// console writer; otherwise each record is one JSON line.
func New(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, errors.Errorf("parsing log level %q: %w", s, err)
	}
	return level, nil
}

// 🎯 Reporter prints one colored line per path a contents request handles.
// Colors follow fatih/color, which turns them off for NO_COLOR and
// non-terminal output.
type Reporter struct {
	console io.Writer
	zlog    zerolog.Logger
	mu      sync.Mutex
	counts  map[contents.EventKind]int
	bytes   int64
}

// 🏭 NewReporter creates a reporter writing to console.
func NewReporter(console io.Writer, zlog zerolog.Logger) *Reporter {
	return &Reporter{
		console: console,
		zlog:    zlog,
		counts:  map[contents.EventKind]int{},
	}
}

// 📝 formatEvent formats one event for display
func formatEvent(e contents.Event) string {
	var (
		symbol string
		attr   color.Attribute
		detail string
	)
	switch e.Kind {
	case contents.EventFetched:
		symbol, attr = "✓", color.FgGreen
		detail = humanize.Bytes(uint64(e.Size))
	case contents.EventBinary:
		symbol, attr = "•", color.FgCyan
		detail = humanize.Bytes(uint64(e.Size))
	case contents.EventOmitted:
		symbol, attr = "-", color.FgYellow
		detail = "over limit"
	default:
		symbol, attr = "✗", color.FgRed
		detail = string(remote.KindOf(e.Err))
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(attr).Sprint(symbol),
		fmt.Sprintf("%-*s", nameWidth, e.Path),
		color.New(attr).Sprint(fmt.Sprintf("%-*s", kindWidth, e.Kind)),
		color.New(color.Faint).Sprint(detail))
}

// Observe records and prints one event. It matches contents.Options.Observer.
func (r *Reporter) Observe(e contents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[e.Kind]++
	if e.Kind == contents.EventFetched {
		r.bytes += e.Size
	}

	fmt.Fprintln(r.console, formatEvent(e))

	ev := r.zlog.Debug()
	if e.Err != nil {
		ev = r.zlog.Warn().Err(e.Err)
	}
	ev.Str("path", e.Path).Str("kind", string(e.Kind)).Int64("size", e.Size).Msg("content event")
}

// 📝 Header prints the request being served
func (r *Reporter) Header(op string, ref remote.RepoRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(ref.FullName()),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op))
}

// 📝 Summary prints the totals seen so far
func (r *Reporter) Summary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := fmt.Sprintf("%d fetched (%s), %d binary, %d omitted, %d failed",
		r.counts[contents.EventFetched], humanize.Bytes(uint64(r.bytes)),
		r.counts[contents.EventBinary], r.counts[contents.EventOmitted], r.counts[contents.EventFailed])

	c := color.FgGreen
	if r.counts[contents.EventFailed] > 0 || r.counts[contents.EventOmitted] > 0 {
		c = color.FgYellow
	}
	fmt.Fprintf(r.console, "%s %s\n", color.New(c).Sprint("■"), line)
	r.zlog.Info().
		Int("fetched", r.counts[contents.EventFetched]).
		Int("binary", r.counts[contents.EventBinary]).
		Int("omitted", r.counts[contents.EventOmitted]).
		Int("failed", r.counts[contents.EventFailed]).
		Msg("contents summary")
}

// 📝 Error prints a failure with its kind
func (r *Reporter) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.console, "❌ %s %s\n",
		color.New(color.FgRed).Sprint(remote.KindOf(err)),
		err.Error())
}
