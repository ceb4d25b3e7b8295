// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads bidc configuration.
//
// Configuration comes from at most one file, named by the --config flag
// or the BIDC_CONFIG environment variable (the flag wins). There is no
// search path: with neither set, the built-in defaults are used
// unchanged. Files ending in .json or .jsonc may contain comments and
// trailing commas; everything else is parsed as YAML.
//
// A file may carry development and production sections whose non-zero
// fields override the base values when the top-level environment
// matches.
package config
