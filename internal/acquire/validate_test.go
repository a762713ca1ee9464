// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		ext     string
		minSize int64
		wantErr bool
	}{
		{"pdf ok", payload("%PDF", 12_000), "pdf", 0, false},
		{"pdf wrong signature", payload("<htm", 12_000), "pdf", 0, true},
		{"epub ok", payload("PK\x03\x04", 12_000), "epub", 0, false},
		{"zip wrong signature", payload("Rar!", 12_000), "zip", 0, true},
		{"extension case and dot", payload("%PDF", 12_000), ".PDF", 0, false},
		{"unknown format size only", payload("AT&T", 12_000), "djvu", 0, false},
		{"below default floor", payload("%PDF", 10_239), "pdf", 0, true},
		{"exactly at floor", payload("%PDF", 10_240), "pdf", 0, false},
		{"custom floor", payload("%PDF", 500), "pdf", 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f")
			assert.NoError(t, os.WriteFile(path, tt.data, 0o644))
			err := Validate(path, tt.ext, tt.minSize)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMissingFile(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "nope"), "pdf", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
