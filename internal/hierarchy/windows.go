package hierarchy

import "github.com/ShenglingZHU/hiera-tf/internal/domain"

// NormalizeFlags truncates or pads flags with false to length n.
func NormalizeFlags(flags []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, flags)
	return out
}

// TruthyWindows returns the maximal runs of true flags as inclusive
// timestamp ranges. flags and timestamps must be aligned.
func TruthyWindows(flags []bool, timestamps []int64) []domain.Window {
	var (
		out    []domain.Window
		start  int64
		inside bool
	)
	for i, f := range flags {
		if i >= len(timestamps) {
			break
		}
		switch {
		case f && !inside:
			start, inside = timestamps[i], true
		case !f && inside:
			out = append(out, domain.Window{Start: start, End: timestamps[i-1]})
			inside = false
		}
	}
	if inside {
		n := min(len(flags), len(timestamps))
		out = append(out, domain.Window{Start: start, End: timestamps[n-1]})
	}
	return out
}

// MapWindowsToMask marks every timestamp falling inside one of windows.
// Both inputs must be ascending; with no windows the mask is all false.
func MapWindowsToMask(windows []domain.Window, timestamps []int64) []bool {
	mask := make([]bool, len(timestamps))
	w := 0
	for i, ts := range timestamps {
		for w < len(windows) && ts > windows[w].End {
			w++
		}
		if w == len(windows) {
			break
		}
		mask[i] = windows[w].Contains(ts)
	}
	return mask
}

// and folds other into mask in place.
func and(mask, other []bool) {
	for i := range mask {
		mask[i] = mask[i] && other[i]
	}
}

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
