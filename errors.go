// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// The error kinds callers match against with errors.Is. Internal packages
// construct the underlying errors but mark them with these same sentinels,
// so a single errors.Is check at this boundary classifies a failure
// regardless of which layer raised it. Not every error carries one of these
// marks: a context error from NewCursor, a read of a block past the end of
// the data file (blockio.ErrEOF), and Cursor misuse or missing tag
// components reported by ReadTag are returned unmarked.
var (
	// ErrOpening marks failures to open or create a table: missing or
	// unreadable files, both base files invalid, or a requested revision
	// unavailable.
	ErrOpening = errs.Opening
	// ErrCorrupt marks on-disk structural corruption.
	ErrCorrupt = errs.Corrupt
	// ErrModified marks a read handle whose referenced block was reclaimed
	// by an intervening commit; the caller should reopen and retry.
	ErrModified = errs.Modified
	// ErrIO marks short reads/writes and fsync failures.
	ErrIO = errs.IO
	// ErrInvalidArgument marks caller errors: oversize key, a tag needing
	// more than 65535 components, a non-increasing commit revision, or
	// deleting the empty key.
	ErrInvalidArgument = errs.InvalidArgument
)

// Is reports whether err is marked with kind (one of the Err* values
// above). It is a thin wrapper over errors.Is provided so callers need not
// import cockroachdb/errors themselves.
func Is(err error, kind error) bool {
	return errors.Is(err, kind)
}
