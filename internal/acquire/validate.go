// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMinFileSize is the smallest file accepted as a real download.
const DefaultMinFileSize = 10 << 10

// signatures maps extensions to the leading bytes their container format
// requires.
var signatures = map[string][]byte{
	"pdf":  []byte("%PDF"),
	"epub": []byte("PK\x03\x04"),
	"zip":  []byte("PK\x03\x04"),
}

// Validate checks that path holds at least minSize bytes and, for known
// container formats, starts with the format's signature. Failures wrap
// ErrValidation.
func Validate(path, ext string, minSize int64) error {
	if minSize <= 0 {
		minSize = DefaultMinFileSize
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if fi.Size() < minSize {
		return fmt.Errorf("%w: %d bytes is below the %d byte floor", ErrValidation, fi.Size(), minSize)
	}

	sig, ok := signatures[strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))]
	if !ok {
		return nil
	}
	head := make([]byte, len(sig))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("%w: reading signature: %v", ErrValidation, err)
	}
	if !bytes.Equal(head, sig) {
		return fmt.Errorf("%w: not a %s file (starts with %q)", ErrValidation, ext, head)
	}
	return nil
}
