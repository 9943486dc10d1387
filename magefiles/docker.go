//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// PostGIS container constants.
const (
	postgisImage     = "postgis/postgis:16-3.4"
	postgisContainer = "strata-postgis"
	postgisPort      = "55432"
	postgisPassword  = "strata"
	postgisDSN       = "postgres://postgres:" + postgisPassword + "@localhost:" + postgisPort + "/postgres?sslmode=disable"
	postgisReadyWait = 60 * time.Second
)

// PostGIS starts and removes the throwaway database used by test:integration.
type PostGIS mg.Namespace

// containerRuntime picks the engine that runs the PostGIS container,
// preferring podman. It returns "" when neither engine answers `info`.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// Start replaces any previous strata-postgis container, publishes it on
// localhost:55432 and blocks until pg_isready succeeds.
func (PostGIS) Start() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	_ = exec.Command(rt, "rm", "-f", postgisContainer).Run()
	if err := sh.RunV(rt, "run", "-d",
		"--name", postgisContainer,
		"-e", "POSTGRES_PASSWORD="+postgisPassword,
		"-p", postgisPort+":5432",
		postgisImage,
	); err != nil {
		return err
	}

	deadline := time.Now().Add(postgisReadyWait)
	for time.Now().Before(deadline) {
		if exec.Command(rt, "exec", postgisContainer, "pg_isready", "-U", "postgres").Run() == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("postgis not ready after %s", postgisReadyWait)
}

// Stop force-removes the strata-postgis container. Without a container
// engine there is nothing to remove.
func (PostGIS) Stop() error {
	rt := containerRuntime()
	if rt == "" {
		return nil
	}
	return exec.Command(rt, "rm", "-f", postgisContainer).Run()
}
