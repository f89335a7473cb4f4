// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import "fmt"

// Set during build via ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent identifies outgoing HTTP requests. Computed at call time so
// ldflags-injected versions are reflected.
func UserAgent() string {
	return fmt.Sprintf("evolibrary/%s", Version)
}
