//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// Lint runs golangci-lint, or go vet when golangci-lint is not installed.
func Lint() error {
	if _, err := exec.LookPath(binLint); err != nil {
		fmt.Println(binLint + " not found, running go vet")
		return sh.RunV(binGo, "vet", "./...")
	}
	return sh.RunV(binLint, "run", "./...")
}
