// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// dbPackages open a SQLite database in their tests.
var dbPackages = []string{"/internal/store", "/internal/cli", "/pkg/cabinet"}

// Test groups test targets (all, unit, integration, cover).
type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the packages whose tests need no database.
func (Test) Unit() error {
	return runPackages(false)
}

// Integration runs the packages whose tests open a SQLite database.
func (Test) Integration() error {
	return runPackages(true)
}

// Cover runs every test and writes a coverage profile.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}

func runPackages(db bool) error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var selected []string
	for _, pkg := range strings.Split(pkgs, "\n") {
		if pkg == "" || strings.HasSuffix(pkg, "/magefiles") {
			continue
		}
		if isDBPackage(pkg) == db {
			selected = append(selected, pkg)
		}
	}
	if len(selected) == 0 {
		fmt.Println("No matching test packages found.")
		return nil
	}
	args := append([]string{"test", "-v"}, selected...)
	return sh.RunV(binGo, args...)
}

func isDBPackage(pkg string) bool {
	for _, suffix := range dbPackages {
		if strings.HasSuffix(pkg, suffix) {
			return true
		}
	}
	return false
}
