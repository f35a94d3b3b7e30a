// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

import (
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// Logger is the narrow logging surface quartz uses for the handful of
// events worth a line: open, create, commit, cancel, and corruption
// detection. Implementations are expected to be safe for concurrent use.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// discardLogger is the default Logger when Options.Logger is nil.
type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Errorf(string, ...interface{}) {}

// logCtx builds the logtags context threaded through a table's log lines:
// table=<path> revision=<r>.
type logCtx struct {
	tags *logtags.Buffer
}

func newLogCtx(path string) *logCtx {
	b := logtags.SingleTagBuffer("table", redact.Sprint(path).StripMarkers())
	return &logCtx{tags: b}
}

func (c *logCtx) withRevision(rev uint64) string {
	b := c.tags.Add("revision", rev)
	return b.String()
}
