// Package level maps point totals to discrete levels using an ordered
// threshold table.
package level

import "sort"

// Calc returns the highest level whose cutoff is <= total. The table holds
// ascending point cutoffs where thresholds[i] is the entry cutoff of level
// i. Totals below the first cutoff map to level 0, and totals beyond the
// top cutoff clamp at the top defined level (no extrapolation).
func Calc(total int, thresholds []int) int {
	if total < 0 || len(thresholds) == 0 {
		return 0
	}
	// Number of cutoffs earned; the last earned cutoff's index is the level.
	n := sort.SearchInts(thresholds, total+1)
	if n == 0 {
		return 0
	}
	return n - 1
}

// Progress describes where a total sits inside its current level band.
type Progress struct {
	Level int
	// Earned is points accumulated past the current level's cutoff.
	Earned int
	// Needed is the size of the current level band, 0 at the top level.
	Needed int
}

// CalcProgress returns the level plus points into it and the band size to
// the next level.
func CalcProgress(total int, thresholds []int) Progress {
	lvl := Calc(total, thresholds)
	p := Progress{Level: lvl}
	if len(thresholds) == 0 {
		return p
	}
	floor := thresholds[0]
	if lvl < len(thresholds) {
		floor = thresholds[lvl]
	}
	if total < floor {
		// Below the first cutoff the band runs from zero to that cutoff.
		p.Earned = total
		p.Needed = floor
		return p
	}
	p.Earned = total - floor
	if lvl+1 < len(thresholds) {
		p.Needed = thresholds[lvl+1] - floor
	}
	return p
}
