package isostream

import "time"

// window is one bounded slice of a requested time range.
type window struct {
	start, end time.Time
}

func chunkDelta(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// windows splits the closed-open interval [start, end) into consecutive
// slices of at most delta: each window is [s, min(s+delta, end)), advancing
// until end is reached. A span no larger than delta yields exactly one
// window; boundaries are shared, never overlapping.
func windows(start, end time.Time, delta time.Duration) []window {
	var out []window
	for s := start; s.Before(end); {
		e := s.Add(delta)
		if e.After(end) {
			e = end
		}
		out = append(out, window{start: s, end: e})
		s = e
	}
	return out
}
