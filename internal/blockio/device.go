// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package blockio implements the synchronous block device primitive
// described in spec §4.A: positioned, fixed-size reads and writes against a
// data file, looping on short transfers, retrying on interrupted syscalls,
// and an explicit flush that forces writes to stable storage.
package blockio

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tokenbucket"
	"golang.org/x/sys/unix"

	"github.com/quartzdb/quartz/internal/errs"
)

// ErrShortIO marks a read/write that could not transfer the requested
// number of bytes even after retrying. It is the same mark value as
// errs.IO.
var ErrShortIO = errs.IO

// ErrEOF marks a read that ran off the end of the file (block n does not
// exist yet).
var ErrEOF = errors.New("quartz: block past end of file")

// Device is the block-addressed I/O surface the B-tree core is built on.
// Implementations need not be safe for concurrent use from more than one
// goroutine (spec §5: single writer, cooperative scheduling).
type Device interface {
	ReadBlock(n int64, buf []byte) error
	WriteBlock(n int64, buf []byte) error
	Flush() error
	Close() error
}

// File is a Device backed by an *os.File, using positioned pread/pwrite so
// that no separate seek is required, and Fdatasync for flush. An optional
// token bucket throttles write bandwidth.
type File struct {
	fd        int
	blockSize int
	throttle  *tokenbucket.TokenBucket
}

// Open wraps fd (already opened read-write or read-only as the caller
// requires) as a block Device with the given block size. If bytesPerSec is
// non-zero, writes are paced through a token bucket.
func Open(fd int, blockSize int, bytesPerSec float64) *File {
	f := &File{fd: fd, blockSize: blockSize}
	if bytesPerSec > 0 {
		f.throttle = &tokenbucket.TokenBucket{}
		f.throttle.Init(tokenbucket.TokensPerSecond(bytesPerSec), tokenbucket.Tokens(bytesPerSec))
	}
	return f
}

// ReadBlock reads exactly len(buf) bytes from block n, retrying on partial
// transfers and on EINTR.
func (f *File) ReadBlock(n int64, buf []byte) error {
	off := n * int64(f.blockSize)
	read := 0
	for read < len(buf) {
		m, err := unix.Pread(f.fd, buf[read:], off+int64(read))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "quartz: read block %d", n), errs.IO)
		}
		if m == 0 {
			if read == 0 {
				return errors.Mark(errors.Newf("quartz: block %d does not exist", n), ErrEOF)
			}
			return errors.Mark(errors.Newf("quartz: short read of block %d (%d of %d bytes)", n, read, len(buf)), ErrShortIO)
		}
		read += m
	}
	return nil
}

// WriteBlock writes exactly len(buf) bytes to block n, retrying on partial
// transfers and on EINTR, and pacing through the throttle if configured.
func (f *File) WriteBlock(n int64, buf []byte) error {
	if f.throttle != nil {
		if ok, retryAfter := f.throttle.TryToFulfill(tokenbucket.Tokens(len(buf))); !ok {
			time.Sleep(retryAfter)
		}
	}
	off := n * int64(f.blockSize)
	written := 0
	for written < len(buf) {
		m, err := unix.Pwrite(f.fd, buf[written:], off+int64(written))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "quartz: write block %d", n), errs.IO)
		}
		if m == 0 {
			return errors.Mark(errors.Newf("quartz: short write of block %d (%d of %d bytes)", n, written, len(buf)), ErrShortIO)
		}
		written += m
	}
	return nil
}

// Flush forces all writes issued so far to stable storage before the
// caller may consider a revision committed (§4.A).
func (f *File) Flush() error {
	for {
		err := unix.Fdatasync(f.fd)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Mark(errors.Wrap(err, "quartz: fdatasync"), errs.IO)
		}
		return nil
	}
}

// Close closes the underlying file descriptor.
func (f *File) Close() error {
	return unix.Close(f.fd)
}
