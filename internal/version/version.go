/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version exposes build information.
package version

import "fmt"

// Set at build time via ldflags:
//
//	-X github.com/friendsincode/newscast/internal/version.Version=X.Y.Z
var (
	Version = "0.3.0"
	Commit  = ""
)

// String returns the human-readable version.
func String() string {
	if Commit != "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return Version
}
