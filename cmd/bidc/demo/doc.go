// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package demo is the interactive terminal demo behind "bidc demo".
//
// A [Demo] opens a page window with an embedded iframe and, on request,
// a popup dialog. The page hosts one chat with each; the iframe and the
// dialog run guest sessions. [Model] draws the four sides as panes and
// routes typing to the focused one. Closing the dialog is noticed by
// the page through liveness polling, and the dialog can be opened again
// with a new window and channel.
package demo
