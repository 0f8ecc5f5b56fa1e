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

package remote

import (
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"
)

// NewBlob classifies raw file bytes. Binary data is dropped and replaced by
// a detected type; text is kept as valid UTF-8.
func NewBlob(p string, sha string, data []byte) FileBlob {
	blob := FileBlob{
		Path: p,
		SHA:  sha,
		Size: int64(len(data)),
	}

	if IsBinary(p, data) {
		blob.Binary = true
		blob.Encoding = "binary"
		blob.DetectedType = DetectType(p, data)
		return blob
	}

	blob.Encoding = "utf-8"
	if utf8.Valid(data) {
		blob.Content = string(data)
	} else {
		blob.Content = strings.ToValidUTF8(string(data), "�")
	}
	return blob
}

// IsBinary reports whether data should never be decoded as text.
func IsBinary(p string, data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if enry.IsBinary(data) {
		return true
	}
	// images such as svg are text, everything else enry flags by name is not
	if enry.IsImage(p) && strings.ToLower(path.Ext(p)) != ".svg" {
		return true
	}
	return false
}

// DetectType names the kind of a binary file, preferring a mime type.
func DetectType(p string, data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime != "application/octet-stream" {
		return mime
	}
	if lang, ok := enry.GetLanguageByExtension(p); ok {
		return lang
	}
	if ext := path.Ext(p); ext != "" {
		return strings.TrimPrefix(ext, ".") + " file"
	}
	return mime
}

var binaryExtensions = map[string]bool{
	".7z": true, ".a": true, ".bin": true, ".bz2": true, ".class": true, ".dll": true,
	".dylib": true, ".exe": true, ".gz": true, ".ico": true, ".jar": true, ".o": true,
	".otf": true, ".pdf": true, ".so": true, ".tar": true, ".ttf": true, ".wasm": true,
	".woff": true, ".woff2": true, ".xz": true, ".zip": true, ".zst": true,
}

// LikelyBinaryName guesses from the name alone whether a file is binary, so
// large files can be skipped before they are fetched.
func LikelyBinaryName(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if binaryExtensions[ext] {
		return true
	}
	return enry.IsImage(p) && ext != ".svg"
}
