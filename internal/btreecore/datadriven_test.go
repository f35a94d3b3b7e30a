// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/ghemawat/stream"
	"github.com/kr/pretty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
)

// TestDataDriven exercises Add/Del/FindTag/Cursor/commit/cancel through
// script files under testdata, in the dispatch style of the teacher's
// data_test.go.
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		tr := newTestTree(t)

		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			var buf bytes.Buffer
			switch d.Cmd {
			case "add":
				for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
					parts := strings.Fields(line)
					created, err := tr.Add([]byte(parts[0]), []byte(parts[1]))
					if err != nil {
						fmt.Fprintf(&buf, "%s: %s\n", parts[0], err)
						continue
					}
					fmt.Fprintf(&buf, "%s: created=%v\n", parts[0], created)
				}

			case "del":
				for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
					removed, err := tr.Del([]byte(line))
					if err != nil {
						fmt.Fprintf(&buf, "%s: %s\n", line, err)
						continue
					}
					fmt.Fprintf(&buf, "%s: removed=%v\n", line, removed)
				}

			case "find":
				for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
					tag, found, err := tr.FindTag([]byte(line))
					if err != nil {
						fmt.Fprintf(&buf, "%s: %s\n", line, err)
					} else if !found {
						fmt.Fprintf(&buf, "%s: not found\n", line)
					} else {
						fmt.Fprintf(&buf, "%s: %s\n", line, tag)
					}
				}

			case "cursor":
				buf.WriteString(cursorLines(t, tr))

			case "commit":
				var rev uint64
				d.ScanArgs(t, "rev", &rev)
				if err := tr.PrepareCommit(rev); err != nil {
					fmt.Fprintf(&buf, "error: %v\n", err)
					break
				}
				for _, n := range tr.DirtyBlocks() {
					enc, err := tr.EncodedBlock(n)
					require.NoError(t, err)
					require.NoError(t, tr.dev.WriteBlock(int64(n), enc))
				}
				tr.FinalizeCommit(rev)
				tr.Bitmap().Reset(tr.Bitmap().Working())
				fmt.Fprintf(&buf, "committed at revision %d\n", rev)

			case "cancel":
				tr.Cancel()
				buf.WriteString("cancelled\n")

			default:
				fmt.Fprintf(&buf, "unknown command %q\n", d.Cmd)
			}
			return buf.String()
		})
	})
}

// cursorLines walks the whole tree forward from the start and renders one
// "key=tag" line per logical entry.
func cursorLines(t testing.TB, tr *Tree) string {
	t.Helper()
	c := NewCursor(tr)
	var buf bytes.Buffer
	for {
		ok, err := c.Next()
		if err != nil {
			fmt.Fprintf(&buf, "error: %v\n", err)
			return buf.String()
		}
		if !ok {
			break
		}
		tag, err := c.ReadTag()
		if err != nil {
			fmt.Fprintf(&buf, "error: %v\n", err)
			return buf.String()
		}
		fmt.Fprintf(&buf, "%s=%s\n", c.Key(), tag)
	}
	return buf.String()
}

// linesOf is a stream.Filter source emitting each line of s.
func linesOf(s string) stream.Filter {
	return stream.FilterFunc(func(arg stream.Arg) error {
		for _, line := range strings.Split(s, "\n") {
			arg.Out <- line
		}
		return nil
	})
}

// grep is a stream.Filter that passes through only lines matching re,
// grounded on the teacher's streamFilterBetweenGrep helper.
func grep(re string) stream.Filter {
	r, err := regexp.Compile(re)
	if err != nil {
		return stream.FilterFunc(func(stream.Arg) error { return err })
	}
	return stream.FilterFunc(func(arg stream.Arg) error {
		for s := range arg.In {
			if r.MatchString(s) {
				arg.Out <- s
			}
		}
		return nil
	})
}

// capture is a stream.Filter sink that appends every line it sees to *out.
func capture(out *[]string) stream.Filter {
	return stream.FilterFunc(func(arg stream.Arg) error {
		for s := range arg.In {
			*out = append(*out, s)
		}
		return nil
	})
}

// TestCursorGrepFiltersViaStream runs a cursor's rendered output through a
// Unix-pipeline-style stream filter, the way the teacher post-processes
// command output in its own data-driven tests.
func TestCursorGrepFiltersViaStream(t *testing.T) {
	tr := newTestTree(t)
	mustAdd(t, tr, "apple", "1")
	mustAdd(t, tr, "banana", "2")
	mustAdd(t, tr, "cherry", "3")
	mustAdd(t, tr, "avocado", "4")

	var out []string
	err := stream.Run(linesOf(cursorLines(t, tr)), grep("^a"), capture(&out))
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"apple=1", "avocado=4"}, out)
}

// TestDebugStringDiffViaDifflib renders a unified diff between two tree
// states using go-difflib, mirroring how a golden-fixture mismatch would be
// reported.
func TestDebugStringDiffViaDifflib(t *testing.T) {
	tr := newTestTree(t)
	mustAdd(t, tr, "a", "1")
	before := tr.DebugString()

	mustAdd(t, tr, "b", "2")
	after := tr.DebugString()

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	require.Contains(t, text, "--- before")
	require.Contains(t, text, "+++ after")

	same := difflib.UnifiedDiff{
		A:       difflib.SplitLines(after),
		B:       difflib.SplitLines(after),
		Context: 1,
	}
	sameText, err := difflib.GetUnifiedDiffString(same)
	require.NoError(t, err)
	require.Empty(t, sameText)
}

// TestPrettyFormatsDirEntryForFailureMessages exercises kr/pretty's
// structure-dumping, used elsewhere to render diagnostic detail into test
// failure messages rather than a raw %+v.
func TestPrettyFormatsDirEntryForFailureMessages(t *testing.T) {
	type diagEntry struct {
		Key       string
		Component uint16
	}
	e := diagEntry{Key: "a", Component: 1}
	out := fmt.Sprintf("%# v", pretty.Formatter(e))
	require.Contains(t, out, "Key:")
	require.Contains(t, out, `"a"`)
	require.Contains(t, out, "Component:")
}
