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

package contents

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/walteh/secondbrain/pkg/remote"
)

// Section labels one file's content.
func Section(path, content string) string {
	return sectionHeader(path) + content + "\n"
}

func sectionHeader(path string) string {
	return "=== " + path + " ===\n"
}

// Placeholder stands in for a binary file. It is not a labeled section, so
// binary files never parse back as content.
func Placeholder(blob remote.FileBlob) string {
	kind := blob.DetectedType
	if kind == "" {
		kind = "binary data"
	}
	return fmt.Sprintf("[binary file %s: %s, %s]\n", blob.Path, kind, humanize.Bytes(uint64(blob.Size)))
}

// ParseSections splits assembled output back into path and content pairs.
func ParseSections(out string) map[string]string {
	sections := map[string]string{}
	var (
		current string
		body    strings.Builder
		open    bool
	)
	flush := func() {
		if open {
			sections[current] = strings.TrimSuffix(body.String(), "\n")
		}
		body.Reset()
	}

	for _, line := range strings.SplitAfter(out, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(trimmed, "=== ") && strings.HasSuffix(trimmed, " ===") && len(trimmed) >= 8 {
			flush()
			current = trimmed[4 : len(trimmed)-4]
			open = true
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") && (strings.HasPrefix(trimmed, "[truncated: ") || strings.HasPrefix(trimmed, "[binary file ")) {
			flush()
			open = false
			continue
		}
		if open {
			body.WriteString(line)
		}
	}
	flush()
	return sections
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
