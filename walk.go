package georegion

import (
	"errors"
	"fmt"
)

// SkipChildren can be returned by a WalkFunc to leave a region's children
// unvisited (and unloaded).
var SkipChildren = errors.New("skip children")

// WalkFunc is called by Walk for every region visited. depth is 0 for the
// region Walk started from.
type WalkFunc func(r *Region, depth int) error

// Walk visits r and its descendants depth-first in data file order, loading
// children as it goes. maxDepth limits how far below r it descends; a
// negative maxDepth walks the whole subtree.
func Walk(r *Region, maxDepth int, fn WalkFunc) error {
	return walk(r, 0, maxDepth, fn)
}

func walk(r *Region, depth, maxDepth int, fn WalkFunc) error {
	if err := fn(r, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	if maxDepth >= 0 && depth >= maxDepth {
		return nil
	}
	children, err := r.Subregions()
	if err != nil {
		return err
	}
	for _, child := range children.All() {
		if err := walk(child, depth+1, maxDepth, fn); err != nil {
			return err
		}
	}
	return nil
}

// ValidationReport summarizes a Validate run.
type ValidationReport struct {
	Regions  int            // Regions visited, r included
	MaxDepth int            // Deepest level reached below r
	ByType   map[string]int // Region count per type
}

// Validate loads the whole subtree under r, which resolves every data file
// and every required translation, and checks that sibling codes are unique.
// It stops at the first problem.
func Validate(r *Region) (*ValidationReport, error) {
	report := &ValidationReport{ByType: make(map[string]int)}
	err := Walk(r, -1, func(reg *Region, depth int) error {
		report.Regions++
		report.ByType[reg.typ]++
		report.MaxDepth = max(report.MaxDepth, depth)

		children, err := reg.Subregions()
		if err != nil {
			return err
		}
		seen := make(map[string]bool, children.Len())
		for _, child := range children.All() {
			key := child.segment()
			if seen[key] {
				return fmt.Errorf("%s: duplicate code %q in %s", reg.Path(), child.code, reg.SubregionDataPath())
			}
			seen[key] = true
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}
