// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the bidc command tree machinery: [Command] dispatch
// with pflag parsing and typo suggestions, the flags every command
// shares ([Globals]), and logger construction for terminal and
// full-screen use.
package cli
