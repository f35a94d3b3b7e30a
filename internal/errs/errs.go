// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package errs defines the shared error-kind marks used across quartz's
// internal packages, matched with errors.Is/errors.Mark from
// github.com/cockroachdb/errors. The root package re-exports these as its
// public error taxonomy (spec §6).
package errs

import "github.com/cockroachdb/errors"

var (
	// Opening marks failures to open a table: missing/unreadable files,
	// both base files invalid, or a requested revision unavailable.
	Opening = errors.New("quartz: database opening error")
	// Corrupt marks on-disk structural corruption: bad header fields,
	// directory not strictly ordered, item overruns the block, bitmap bit
	// unset for a reachable block, tree deeper than BTreeCursorLevels, or
	// (on a writable handle) a block revision newer than the parent's.
	Corrupt = errors.New("quartz: database corrupt")
	// Modified marks the revision-discarded ("overwritten") condition on a
	// read handle: a referenced block was reclaimed by an intervening
	// commit. The caller should reopen and retry.
	Modified = errors.New("quartz: database modified")
	// IO marks short reads/writes, seek failures and fsync failures.
	IO = errors.New("quartz: database I/O error")
	// InvalidArgument marks caller errors: oversize key, a tag needing more
	// than 65535 components, a non-increasing commit revision, or deleting
	// the empty null key.
	InvalidArgument = errors.New("quartz: invalid argument")
)
