//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// envPostGISDSN enables the PostGIS tests in internal/postgis.
const envPostGISDSN = "STRATA_POSTGIS_DSN"

// Test runs the package tests against SQLite and, when a DSN is
// available, PostGIS.
type Test mg.Namespace

// All runs every package. The PostGIS tests join in only when
// STRATA_POSTGIS_DSN is already exported.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs every package on SQLite alone by clearing STRATA_POSTGIS_DSN.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{envPostGISDSN: ""}, binGo, "test", "./...")
}

// Integration points STRATA_POSTGIS_DSN at a fresh PostGIS container,
// unless the caller exported one, and runs the engine and backend packages
// against it.
func (Test) Integration() error {
	mg.Deps(PostGIS.Start)
	defer PostGIS{}.Stop()

	dsn := os.Getenv(envPostGISDSN)
	if dsn == "" {
		dsn = postgisDSN
	}
	return sh.RunWithV(map[string]string{envPostGISDSN: dsn}, binGo, "test", "-count=1", "./internal/postgis/...", "./pkg/backend/...")
}
