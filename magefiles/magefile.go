// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

// Package main contains Mage build targets for ihm-report developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "ihm-report"
	cmdPkg  = "./cmd/ihm-report"
)

// workDirs lists the directories a local validation run expects.
var workDirs = []string{
	"Validation",
	"cache",
	"static",
}

// Init creates the working directories for local validation runs.
func Init() error {
	for _, dir := range workDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Working directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Report builds the CLI and validates the entry named by IHM_ENTRY
// (default PDBDEV_00000001.cif), overwriting earlier output.
func Report() error {
	mg.Deps(Build, Init)
	entry := os.Getenv("IHM_ENTRY")
	if entry == "" {
		entry = "PDBDEV_00000001.cif"
	}
	return sh.RunV(filepath.Join(binDir, binName), "validate", "-f", entry, "--force", "-v")
}

// Clean removes build output and local report directories.
func Clean() error {
	for _, dir := range []string{binDir, "Validation"} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints project metrics: Go production/test LOC and template line count.
func Stats() error {
	prodLines, err := countLines(".", isProdGo)
	if err != nil {
		return err
	}
	testLines, err := countLines(".", isTestGo)
	if err != nil {
		return err
	}
	tplLines, err := countLines("internal/render/templates", isTemplate)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines (HTML templates):          %d\n", tplLines)
	return nil
}

func isTestGo(path string) bool { return strings.HasSuffix(path, "_test.go") }

func isProdGo(path string) bool { return filepath.Ext(path) == ".go" && !isTestGo(path) }

func isTemplate(path string) bool { return filepath.Ext(path) == ".html" }

// countLines walks root and counts non-blank lines in files matched by keep.
// Directories starting with "_" or "." are skipped, as the go tool does.
func countLines(root string, keep func(string) bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !keep(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if len(bytes.TrimSpace(sc.Bytes())) > 0 {
				total++
			}
		}
		return sc.Err()
	})
	return total, err
}
