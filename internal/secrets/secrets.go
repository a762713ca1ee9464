// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads connection settings that should stay out of config
// files from a directory of plain-text files. Each file is one secret: the
// filename is the key and the trimmed contents are the value.
//
// Recognised keys: proxy-url, user-agent.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Keys read by the CLI.
const (
	KeyProxyURL  = "proxy-url"
	KeyUserAgent = "user-agent"
)

// Warnings receives a line for every secret file that cannot be read.
var Warnings io.Writer = os.Stderr

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on Warnings but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(Warnings, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Value returns explicit when it is set, otherwise the secret stored under
// key. Flags and config values win over secret files.
func Value(secrets map[string]string, key, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return secrets[key]
}
