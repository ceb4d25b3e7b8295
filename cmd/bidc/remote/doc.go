// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote implements "bidc serve" and "bidc dial": a line chat
// between windows in two processes joined by a bridge link. The serving
// side hosts the chat and the dialing side is the guest. Each line read
// from stdin is sent; messages and connection changes are printed to
// stdout.
package remote
