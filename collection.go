package georegion

import (
	"iter"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Collection is an ordered, read-only set of sibling regions, in the order
// their data file declares them.
type Collection struct {
	regions []*Region
	byCode  map[string]*Region // lower-cased code -> first region with it
}

func newCollection(regions []*Region) *Collection {
	c := &Collection{
		regions: regions,
		byCode:  make(map[string]*Region, len(regions)),
	}
	for _, r := range regions {
		key := strings.ToLower(r.code)
		if _, dup := c.byCode[key]; !dup {
			c.byCode[key] = r
		}
	}
	return c
}

// Len returns the number of regions.
func (c *Collection) Len() int { return len(c.regions) }

// At returns the region at position i.
func (c *Collection) At(i int) (*Region, error) {
	if i < 0 || i >= len(c.regions) {
		return nil, ErrOutOfRange
	}
	return c.regions[i], nil
}

// ByCode returns the region whose code equals code, ignoring case.
func (c *Collection) ByCode(code string) (*Region, error) {
	if r, ok := c.byCode[strings.ToLower(code)]; ok {
		return r, nil
	}
	return nil, &NotFoundError{Key: code}
}

// Coded is ByCode extended to the alpha-2, alpha-3 and numeric codes of
// country regions, so "US", "usa" and "840" all find the United States.
func (c *Collection) Coded(code string) (*Region, error) {
	if r, err := c.ByCode(code); err == nil {
		return r, nil
	}
	for _, r := range c.regions {
		if strings.EqualFold(r.alpha2, code) || strings.EqualFold(r.alpha3, code) ||
			(r.numeric != "" && r.numeric == code) {
			return r, nil
		}
	}
	return nil, &NotFoundError{Key: code}
}

// All iterates over the regions with their positions.
func (c *Collection) All() iter.Seq2[int, *Region] {
	return slices.All(c.regions)
}

// Regions returns a copy of the underlying slice.
func (c *Collection) Regions() []*Region {
	return slices.Clone(c.regions)
}

// Typed returns the regions of type t, e.g. "state", in order.
func (c *Collection) Typed(t string) *Collection {
	var out []*Region
	for _, r := range c.regions {
		if strings.EqualFold(r.typ, t) {
			out = append(out, r)
		}
	}
	return newCollection(out)
}

// NameOptions configures Named.
type NameOptions struct {
	FuzzyDistance int // Max edit distance for typo tolerance (0 = exact, capped at 3)
}

// maxFuzzyDistance caps NameOptions.FuzzyDistance; above it unrelated short
// names start to match each other.
const maxFuzzyDistance = 3

// Named returns the region whose localized name or official name equals
// name, ignoring case. With a fuzzy distance, the closest name within that
// many edits is returned when there is no exact match; ties go to the
// earlier region.
func (c *Collection) Named(name string, opts ...NameOptions) (*Region, error) {
	name = strings.TrimSpace(name)
	for _, r := range c.regions {
		if strings.EqualFold(r.name, name) || (r.officialName != "" && strings.EqualFold(r.officialName, name)) {
			return r, nil
		}
	}

	var options NameOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	maxDist := min(options.FuzzyDistance, maxFuzzyDistance)
	if maxDist <= 0 || name == "" {
		return nil, &NotFoundError{Key: name}
	}

	query := strings.ToLower(name)
	var best *Region
	bestDist := maxDist + 1
	for _, r := range c.regions {
		d := levenshtein.ComputeDistance(query, strings.ToLower(r.name))
		if d < bestDist {
			best, bestDist = r, d
		}
	}
	if best == nil {
		return nil, &NotFoundError{Key: name}
	}
	return best, nil
}
