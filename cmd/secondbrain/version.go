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
	"runtime"
	"runtime/debug"
	"strings"
)

// buildInfo is what the binary knows about itself
type buildInfo struct {
	version  string
	revision string
	built    string
	dirty    bool
}

func readBuildInfo() buildInfo {
	info := buildInfo{version: "dev", revision: "unknown", built: "unknown"}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.revision = s.Value
		case "vcs.time":
			info.built = s.Value
		case "vcs.modified":
			info.dirty = s.Value == "true"
		}
	}
	return info
}

// FormatVersion returns a formatted string of version information
func FormatVersion() string {
	info := readBuildInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "🧠 secondbrain %s\n", info.version)
	fmt.Fprintf(&b, "revision:  %s", info.revision)
	if info.dirty {
		b.WriteString(" (modified)")
	}
	fmt.Fprintf(&b, "\nbuilt:     %s\n", info.built)
	fmt.Fprintf(&b, "go:        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}
