//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Smoke groups targets that run the built CLI against the live catalog.
type Smoke mg.Namespace

func smokeQuery() (string, error) {
	q := os.Getenv("QUERY")
	if q == "" {
		return "", fmt.Errorf("set QUERY to the title to look up")
	}
	return q, nil
}

// Search builds the CLI and searches for $QUERY.
func (Smoke) Search() error {
	mg.Deps(Build)
	q, err := smokeQuery()
	if err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binDir, binName), "search", q)
}

// Fetch builds the CLI and downloads $QUERY into downloads/.
func (Smoke) Fetch() error {
	mg.Deps(Build, Init)
	q, err := smokeQuery()
	if err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binDir, binName), "fetch", "--out-dir", "downloads", q)
}
