// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the archive browser's YAML configuration.
//
// Configuration comes from a single file named by the ARCHIVE_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no file discovery. Values in the file are
// merged over [Default], so a file only needs the keys it changes.
//
// Path fields support ${HOME}, ${VAR} and ${VAR:-default} expansion.
// Secrets never live in the file: the map API key is read from the
// environment into [Secrets] by [LoadSecrets].
//
// This package depends on no other archive packages.
package config
