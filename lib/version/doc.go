// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the archive binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected at
// build time with -ldflags -X. When a variable was not injected, the
// VCS stamp the Go toolchain embeds (vcs.revision, vcs.modified,
// vcs.time) fills it in, so `go install` builds still identify
// themselves.
package version
