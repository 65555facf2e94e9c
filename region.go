package georegion

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/andreiashu/georegion/internal/metrics"
	"github.com/golang/geo/s2"
	"github.com/zeebo/blake3"
)

// Region is one node of the world tree: the world itself, a country, a
// subdivision and so on. Its children are loaded from the data files on
// first access and cached.
type Region struct {
	tree   *tree
	parent *Region // nil for the root; read-only back-reference

	typ          string
	code         string
	name         string
	officialName string
	alpha2       string
	alpha3       string
	numeric      string
	center       s2.LatLng
	hasCenter    bool

	dataPath    string // root only; other regions derive theirs
	subregions  *Collection
	fingerprint [32]byte // digest of the files subregions was built from
}

// translatedField is a region attribute whose value comes from the
// translator under "<path>.<key>".
type translatedField struct {
	key      string
	required bool
	set      func(r *Region, text string)
}

var translatedFields = []translatedField{
	{key: "name", required: true, set: func(r *Region, text string) { r.name = text }},
	{key: "official_name", set: func(r *Region, text string) { r.officialName = text }},
}

func newRegion(t *tree, rec Record, parent *Region) (*Region, error) {
	r := &Region{
		tree:    t,
		parent:  parent,
		typ:     rec.Text(keyType),
		code:    rec.Text(keyCode),
		alpha2:  rec.Text(keyAlpha2),
		alpha3:  rec.Text(keyAlpha3),
		numeric: rec.Text(keyNumeric),
	}
	// Country data is keyed by alpha_2_code rather than code.
	if r.code == "" {
		r.code = r.alpha2
	}
	if lat, ok := rec.Float(keyLat); ok {
		if lng, ok := rec.Float(keyLng); ok {
			if ll := s2.LatLngFromDegrees(lat, lng); ll.IsValid() {
				r.center, r.hasCenter = ll, true
			}
		}
	}
	if err := r.translate(); err != nil {
		return nil, err
	}
	metrics.RegionsBuiltTotal.Inc()
	return r, nil
}

func (r *Region) translate() error {
	for _, f := range translatedFields {
		key := r.PathWith(f.key)
		text, err := r.tree.translator.Translate(key)
		if err != nil {
			if !f.required && errors.Is(err, ErrMissingTranslation) {
				continue
			}
			if errors.Is(err, ErrMissingTranslation) {
				metrics.TranslationFailuresTotal.Inc()
			}
			return &TranslationError{Key: key, Err: err}
		}
		f.set(r, text)
	}
	return nil
}

// Type returns the region type, e.g. "country" or "state".
func (r *Region) Type() string { return r.typ }

// Code returns the region code as written in the data, e.g. "IL".
func (r *Region) Code() string { return r.code }

// Name returns the localized name resolved when the region was built.
func (r *Region) Name() string { return r.name }

// OfficialName returns the localized official name, or "" when the locale
// files have none.
func (r *Region) OfficialName() string { return r.officialName }

// Alpha2 returns the ISO 3166-1 alpha-2 code of a country region.
func (r *Region) Alpha2() string { return r.alpha2 }

// Alpha3 returns the ISO 3166-1 alpha-3 code of a country region.
func (r *Region) Alpha3() string { return r.alpha3 }

// Numeric returns the ISO 3166-1 numeric code of a country region.
func (r *Region) Numeric() string { return r.numeric }

// Parent returns the enclosing region, or nil for the root.
func (r *Region) Parent() *Region { return r.parent }

// IsRoot reports whether r is the world region.
func (r *Region) IsRoot() bool { return r.parent == nil }

// Path returns the dotted location of the region, e.g. "world.us.il".
// It is also the prefix of the region's translation keys.
func (r *Region) Path() string {
	if r.parent == nil {
		return rootSegment
	}
	return r.parent.Path() + "." + r.segment()
}

// PathWith returns Path followed by "." and suffix; an empty suffix yields
// Path unchanged.
func (r *Region) PathWith(suffix string) string {
	if suffix == "" {
		return r.Path()
	}
	return r.Path() + "." + suffix
}

func (r *Region) segment() string {
	return strings.ToLower(r.code)
}

// SubregionDataPath returns the data file holding the children of r. For a
// child region it is the parent's file with the extension replaced by a
// directory named after the child's code: "world.yml" becomes
// "world/us.yml", which becomes "world/us/il.yml".
func (r *Region) SubregionDataPath() string {
	if r.parent == nil {
		return r.dataPath
	}
	parent := r.parent.SubregionDataPath()
	ext := path.Ext(parent)
	return strings.TrimSuffix(parent, ext) + "/" + r.segment() + ext
}

// Subregions returns the children of r, loading them on first call. A
// region without a data file has no children; that is not an error.
// Repeated calls return the same collection until Reset.
func (r *Region) Subregions() (*Collection, error) {
	if r.subregions != nil {
		return r.subregions, nil
	}
	c, sum, err := r.loadSubregions()
	if err != nil {
		return nil, err
	}
	r.subregions, r.fingerprint = c, sum
	return c, nil
}

// HasSubregions reports whether r has at least one child. It loads the
// children if needed.
func (r *Region) HasSubregions() (bool, error) {
	c, err := r.Subregions()
	if err != nil {
		return false, err
	}
	return c.Len() > 0, nil
}

// Reset drops the cached children. The next Subregions call reads the data
// files again. The region's own name is not re-resolved.
func (r *Region) Reset() {
	r.subregions = nil
	r.fingerprint = [32]byte{}
}

// Refresh resets the cached children if the data files they were built from
// changed since, and reports whether it did. Regions whose children were
// never loaded report false.
func (r *Region) Refresh() (bool, error) {
	if r.subregions == nil {
		return false, nil
	}
	base, overlay, err := r.tree.read(r.SubregionDataPath())
	if err != nil {
		return false, err
	}
	if fingerprint(base, overlay) == r.fingerprint {
		return false, nil
	}
	r.tree.logger.Debug("data changed, dropping subregions", "path", r.Path())
	r.Reset()
	return true, nil
}

// Descendant walks down from r following codes, e.g.
// world.Descendant("US", "IL").
func (r *Region) Descendant(codes ...string) (*Region, error) {
	cur := r
	for _, code := range codes {
		c, err := cur.Subregions()
		if err != nil {
			return nil, err
		}
		if cur, err = c.ByCode(code); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Lookup finds a descendant by dotted path relative to r. On the root a
// leading "world" segment is accepted, so Lookup("world.us.il") and
// Lookup("us.il") are equivalent.
func (r *Region) Lookup(p string) (*Region, error) {
	p = strings.Trim(strings.TrimSpace(p), ".")
	if p == "" {
		return r, nil
	}
	segs := strings.Split(p, ".")
	if r.parent == nil && strings.EqualFold(segs[0], rootSegment) {
		segs = segs[1:]
	}
	found, err := r.Descendant(segs...)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Key: p}
	}
	return found, err
}

func (r *Region) String() string {
	return fmt.Sprintf("<Region name=%q type=%q>", r.name, r.typ)
}

// read returns the raw base and overlay files for p. A missing base file
// yields (nil, nil); the overlay is only consulted when the base exists.
func (t *tree) read(p string) (base, overlay []byte, err error) {
	if base, err = t.base.readOptional(p); err != nil || base == nil {
		return nil, nil, err
	}
	if t.overlay != nil {
		if overlay, err = t.overlay.readOptional(p); err != nil {
			return nil, nil, err
		}
	}
	return base, overlay, nil
}

// records decodes the base file and merges the overlay file into it.
func (t *tree) records(p string, baseRaw, overlayRaw []byte) ([]Record, error) {
	base, err := DecodeRecords(p, baseRaw)
	if err != nil {
		return nil, err
	}
	metrics.DataLoadsTotal.WithLabelValues(metrics.LayerBase).Inc()
	if overlayRaw == nil {
		return base, nil
	}

	overlay, err := DecodeRecords(p+" (overlay)", overlayRaw)
	if err != nil {
		return nil, err
	}
	metrics.DataLoadsTotal.WithLabelValues(metrics.LayerOverlay).Inc()

	merged, stats := mergeRecords(base, overlay)
	metrics.MergeRecordsTotal.WithLabelValues(metrics.OutcomeAdded).Add(float64(stats.Added))
	metrics.MergeRecordsTotal.WithLabelValues(metrics.OutcomeOverridden).Add(float64(stats.Overridden))
	metrics.MergeRecordsTotal.WithLabelValues(metrics.OutcomeRemoved).Add(float64(stats.Removed))
	t.logger.Debug("applied overlay", "path", p,
		"added", stats.Added, "overridden", stats.Overridden, "removed", stats.Removed)
	return merged, nil
}

func (r *Region) loadSubregions() (*Collection, [32]byte, error) {
	start := time.Now()
	p := r.SubregionDataPath()
	baseRaw, overlayRaw, err := r.tree.read(p)
	if err != nil {
		return nil, [32]byte{}, err
	}
	sum := fingerprint(baseRaw, overlayRaw)
	if baseRaw == nil {
		return newCollection(nil), sum, nil
	}

	records, err := r.tree.records(p, baseRaw, overlayRaw)
	if err != nil {
		return nil, sum, err
	}
	regions := make([]*Region, 0, len(records))
	for i, rec := range records {
		keyless := !rec.hasNaturalKey()
		if keyless {
			if r.tree.strict {
				return nil, sum, &RecordError{Path: p, Index: i}
			}
			r.tree.logger.Warn("record has neither code nor alpha_2_code", "path", p, "index", i)
		}
		child, err := newRegion(r.tree, rec, r)
		if err != nil {
			if keyless {
				// Its path ends in an empty segment, which few translators know.
				return nil, sum, fmt.Errorf("%s record %d has neither code nor alpha_2_code: %w", p, i, err)
			}
			return nil, sum, err
		}
		regions = append(regions, child)
	}

	metrics.LoadDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	r.tree.logger.Debug("loaded subregions", "path", r.Path(), "file", p, "count", len(regions))
	return newCollection(regions), sum, nil
}

// fingerprint digests the files a level of the tree was built from. Absent
// files hash differently from empty ones.
func fingerprint(base, overlay []byte) [32]byte {
	h := blake3.New()
	for _, raw := range [][]byte{base, overlay} {
		if raw == nil {
			h.Write([]byte{0})
			continue
		}
		fmt.Fprintf(h, "\x01%d:", len(raw))
		h.Write(raw)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
