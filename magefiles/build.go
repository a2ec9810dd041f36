//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the stockcount project using Mage.
//
// Usage:
//
//	mage build          Compile the stockcount binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Run all tests and write coverage.out
//	mage lint           Run go vet and golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install stockcount to GOPATH/bin
//	mage demo           Initialize a local data dir with demo data
//	mage serve          Build and serve the API on the local data dir
//	mage docker:build   Build the server container image
//	mage stats          Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "stockcount"
	binaryDir  = "bin"
	cmdDir     = "./cmd/stockcount"

	// localDir holds config and data for the demo and serve targets.
	localDir = ".stockcount"
)

// Build compiles the stockcount binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", binaryPath(), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, binaryPath())
}

// Demo initializes .stockcount/ with sample branches and products.
func Demo() error {
	mg.Deps(Build)
	return sh.RunV(binaryPath(), localArgs("init", "--demo")...)
}

// Serve runs the HTTP API against .stockcount/.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binaryPath(), localArgs("serve")...)
}

func binaryPath() string {
	return filepath.Join(binaryDir, binaryName)
}

func localArgs(args ...string) []string {
	return append([]string{
		"--config-dir", filepath.Join(localDir, "config"),
		"--data-dir", filepath.Join(localDir, "data"),
	}, args...)
}
