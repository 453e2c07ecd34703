// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package window partitions a line-oriented document into contiguous,
// non-overlapping windows small enough to process in one model request.
package window

import "fmt"

// Window is a contiguous slice of a document's lines. Start and End are a
// half-open, 0-based line range; Lines holds the materialized content.
type Window struct {
	Start int
	End   int
	Lines []string
}

// Len returns the number of lines in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Partition splits lines into windows of at most size lines each. Windows
// tile the input exactly: they are contiguous, never overlap, and their union
// covers every line once. The final window may be shorter than size. An empty
// input yields zero windows. A non-positive size is a configuration error.
func Partition(lines []string, size int) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	total := len(lines)
	if total == 0 {
		return nil, nil
	}

	windows := make([]Window, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		windows = append(windows, Window{
			Start: start,
			End:   end,
			Lines: lines[start:end],
		})
	}
	return windows, nil
}
