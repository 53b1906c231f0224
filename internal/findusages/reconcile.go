// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// translateSpan carries the byte span [start, end) of before over to the
// equivalent location in after. It fails when the span collapses or falls
// outside after.
func translateSpan(before, after string, start, end int) (int, int, bool) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)

	newStart := dmp.DiffXIndex(diffs, start)
	newEnd := dmp.DiffXIndex(diffs, end)
	if newStart < 0 || newEnd > len(after) || newEnd <= newStart {
		return 0, 0, false
	}
	return newStart, newEnd, true
}
