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

package remote_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/secondbrain/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        remote.RepoRef
		wantErr     bool
		errContains string
	}{
		{
			name:  "valid_repository",
			input: "octo/hello",
			want:  remote.RepoRef{Owner: "octo", Name: "hello"},
		},
		{
			name:  "with_ref",
			input: "octo/hello@feature/x",
			want:  remote.RepoRef{Owner: "octo", Name: "hello", Ref: "feature/x"},
		},
		{
			name:  "with_whitespace",
			input: " octo / hello ",
			want:  remote.RepoRef{Owner: "octo", Name: "hello"},
		},
		{
			name:        "empty_name",
			input:       "",
			wantErr:     true,
			errContains: "empty repository name",
		},
		{
			name:        "missing_slash",
			input:       "octohello",
			wantErr:     true,
			errContains: "invalid repository name",
		},
		{
			name:        "too_many_slashes",
			input:       "octo/hello/extra",
			wantErr:     true,
			errContains: "invalid repository name",
		},
		{
			name:        "empty_owner",
			input:       "/hello",
			wantErr:     true,
			errContains: "invalid repository name",
		},
		{
			name:        "bad_characters",
			input:       "octo/hel lo",
			wantErr:     true,
			errContains: "invalid repository name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := remote.ParseRepoRef(tt.input)
			if tt.wantErr {
				require.Error(t, err, "ParseRepoRef should error")
				assert.Contains(t, err.Error(), tt.errContains, "error message should match")
				assert.Equal(t, remote.KindInvalidInput, remote.KindOf(err), "kind should be invalid input")
				return
			}
			require.NoError(t, err, "ParseRepoRef should not error")
			assert.Equal(t, tt.want, got, "parsed ref should match")
		})
	}
}

func TestErrorKinds(t *testing.T) {
	t.Run("test_is_matches_sentinel_by_kind", func(t *testing.T) {
		err := remote.NewError(remote.KindNotFound, "get blob", errors.New("404")).WithPath("a.txt")
		wrapped := errors.Errorf("fetching: %w", err)

		assert.True(t, errors.Is(wrapped, remote.ErrNotFound), "wrapped error should match sentinel")
		assert.False(t, errors.Is(wrapped, remote.ErrAuth), "wrapped error should not match other kinds")
		assert.Equal(t, remote.KindNotFound, remote.KindOf(wrapped), "kind should survive wrapping")
		assert.Contains(t, err.Error(), "a.txt", "message should carry the path")
	})

	t.Run("test_kind_of_context_errors", func(t *testing.T) {
		assert.Equal(t, remote.KindCanceled, remote.KindOf(fmt.Errorf("x: %w", context.Canceled)))
		assert.Equal(t, remote.KindNetwork, remote.KindOf(context.DeadlineExceeded))
		assert.Equal(t, remote.KindUnknown, remote.KindOf(errors.New("boom")))
		assert.Equal(t, remote.Kind(""), remote.KindOf(nil))
	})

	t.Run("test_retry_after", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		err := remote.NewError(remote.KindRateLimit, "wait", nil)
		err.ResetAt = now.Add(90 * time.Second)

		assert.Equal(t, 90*time.Second, err.RetryAfter(now))
		assert.Equal(t, time.Duration(0), err.RetryAfter(now.Add(time.Hour)))
		assert.Contains(t, err.Error(), "resets at 2025-01-01T00:01:30Z")
	})

	t.Run("test_retryable_and_fatal", func(t *testing.T) {
		assert.True(t, remote.IsRetryable(remote.NewError(remote.KindNetwork, "x", nil)))
		assert.False(t, remote.IsRetryable(remote.NewError(remote.KindNotFound, "x", nil)))
		assert.True(t, remote.IsFatal(remote.NewError(remote.KindAuth, "x", nil)))
		assert.False(t, remote.IsFatal(remote.NewError(remote.KindNotFound, "x", nil)))
	})
}

func TestNewBlob(t *testing.T) {
	t.Run("test_text_blob", func(t *testing.T) {
		blob := remote.NewBlob("README.md", "abc", []byte("# hello\n"))
		assert.False(t, blob.Binary)
		assert.Equal(t, "# hello\n", blob.Content)
		assert.Equal(t, int64(8), blob.Size)
		assert.Equal(t, "utf-8", blob.Encoding)
	})

	t.Run("test_binary_blob_is_never_decoded", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		blob := remote.NewBlob("logo.png", "def", png)
		assert.True(t, blob.Binary)
		assert.Empty(t, blob.Content, "binary content must not be embedded")
		assert.Equal(t, "image/png", blob.DetectedType)
	})

	t.Run("test_svg_is_text", func(t *testing.T) {
		blob := remote.NewBlob("icon.svg", "", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
		assert.False(t, blob.Binary)
	})

	t.Run("test_change_status", func(t *testing.T) {
		assert.Equal(t, remote.StatusAdded, remote.ParseChangeStatus("added"))
		assert.Equal(t, remote.StatusAdded, remote.ParseChangeStatus("copied"))
		assert.Equal(t, remote.StatusRemoved, remote.ParseChangeStatus("removed"))
		assert.Equal(t, remote.StatusRenamed, remote.ParseChangeStatus("renamed"))
		assert.Equal(t, remote.StatusModified, remote.ParseChangeStatus("changed"))
	})
}
