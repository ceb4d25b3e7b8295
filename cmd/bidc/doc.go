// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Bidc demonstrates bidirectional channels between windows.
//
// Usage:
//
//	bidc demo                                  interactive terminal demo
//	bidc serve --listen unix:/tmp/bidc.sock    host a chat across processes
//	bidc dial --connect unix:/tmp/bidc.sock    join it
//	bidc version
//
// Every command accepts --config (or $BIDC_CONFIG), --verbose, and
// --log-file.
package main
