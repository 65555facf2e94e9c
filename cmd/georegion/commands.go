package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/andreiashu/georegion"
)

// lookup resolves a dotted path such as "us.il" or "world.es.an" against a
// fresh world. An empty path is the world itself.
func lookup(g *Globals, path string) (*georegion.Region, error) {
	world, err := g.world()
	if err != nil {
		return nil, err
	}
	if path == "" || path == "world" {
		return world, nil
	}
	return world.Lookup(path)
}

func label(r *georegion.Region) string {
	if r.Name() != "" {
		return r.Name()
	}
	return r.Path()
}

// ListCmd prints the direct subregions of a region.
type ListCmd struct {
	Path string `arg:"" optional:"" help:"Region path, e.g. us or world.es.an (default: world)"`
	Type string `name:"type" short:"t" help:"Only list subregions of this type"`
}

func (cmd *ListCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.Path)
	if err != nil {
		return err
	}
	children, err := r.Subregions()
	if err != nil {
		return err
	}
	if cmd.Type != "" {
		children = children.Typed(cmd.Type)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range children.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code(), c.Type(), label(c))
	}
	return tw.Flush()
}

// ShowCmd prints everything known about a single region.
type ShowCmd struct {
	Path      string `arg:"" help:"Region path, e.g. us.il"`
	Precision int    `name:"precision" default:"7" help:"Geohash precision"`
}

func (cmd *ShowCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.Path)
	if err != nil {
		return err
	}
	return showRegion(os.Stdout, r, cmd.Precision)
}

func showRegion(w io.Writer, r *georegion.Region, precision int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}
	row("Path", r.Path())
	row("Code", r.Code())
	row("Type", r.Type())
	row("Name", r.Name())
	row("Official name", r.OfficialName())
	row("Alpha-2", r.Alpha2())
	row("Alpha-3", r.Alpha3())
	row("Numeric", r.Numeric())
	if center, ok := r.Center(); ok {
		row("Center", fmt.Sprintf("%.4f, %.4f", center.Lat.Degrees(), center.Lng.Degrees()))
		row("Geohash", r.Geohash(precision))
	}
	children, err := r.Subregions()
	if err != nil {
		return err
	}
	if children.Len() > 0 {
		row("Subregions", fmt.Sprintf("%d (%s)", children.Len(), r.SubregionDataPath()))
	}
	return tw.Flush()
}

// TreeCmd prints a region and its descendants, indented by depth.
type TreeCmd struct {
	Path  string `arg:"" optional:"" help:"Region path (default: world)"`
	Depth int    `name:"depth" short:"d" default:"1" help:"Levels to descend; negative for all"`
}

func (cmd *TreeCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.Path)
	if err != nil {
		return err
	}
	return georegion.Walk(r, cmd.Depth, func(reg *georegion.Region, depth int) error {
		_, err := fmt.Printf("%s%s  %s\n", strings.Repeat("  ", depth), reg.Code(), label(reg))
		return err
	})
}

// FindCmd finds a direct subregion by name.
type FindCmd struct {
	Name  string `arg:"" help:"Name to look for"`
	In    string `name:"in" help:"Parent region path (default: world)"`
	Fuzzy int    `name:"fuzzy" default:"0" help:"Maximum edit distance for fuzzy matching (0 disables, capped at 3)"`
}

func (cmd *FindCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.In)
	if err != nil {
		return err
	}
	children, err := r.Subregions()
	if err != nil {
		return err
	}
	found, err := children.Named(cmd.Name, georegion.NameOptions{FuzzyDistance: cmd.Fuzzy})
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", found.Path(), label(found))
	return nil
}

// NearestCmd reports the direct subregion whose center is closest to a point.
type NearestCmd struct {
	Lat float64 `arg:"" help:"Latitude in degrees"`
	Lng float64 `arg:"" help:"Longitude in degrees"`
	In  string  `name:"in" help:"Parent region path (default: world)"`
}

func (cmd *NearestCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.In)
	if err != nil {
		return err
	}
	children, err := r.Subregions()
	if err != nil {
		return err
	}
	found, ok := children.Nearest(cmd.Lat, cmd.Lng)
	if !ok {
		return fmt.Errorf("no subregion of %s has a center", r.Path())
	}
	fmt.Printf("%s\t%s\n", found.Path(), label(found))
	return nil
}

// ValidateCmd loads every region and reports counts per type.
type ValidateCmd struct {
	Path string `arg:"" optional:"" help:"Region path to start from (default: world)"`
}

func (cmd *ValidateCmd) Run(g *Globals) error {
	r, err := lookup(g, cmd.Path)
	if err != nil {
		return err
	}
	report, err := georegion.Validate(r)
	if err != nil {
		slog.Error("validation failed", "path", r.Path(), "visited", report.Regions, "err", err)
		return err
	}
	slog.Info("validation passed", "path", r.Path(), "regions", report.Regions, "max_depth", report.MaxDepth)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, typ := range slices.Sorted(maps.Keys(report.ByType)) {
		fmt.Fprintf(tw, "%s\t%d\n", typ, report.ByType[typ])
	}
	return tw.Flush()
}

// MergeCmd applies an overlay data file to a base data file.
type MergeCmd struct {
	Base    string `arg:"" type:"existingfile" help:"Base data file"`
	Overlay string `arg:"" type:"existingfile" help:"Overlay data file"`
}

func (cmd *MergeCmd) Run(g *Globals) error {
	base, err := readRecords(cmd.Base)
	if err != nil {
		return err
	}
	overlay, err := readRecords(cmd.Overlay)
	if err != nil {
		return err
	}
	return georegion.EncodeRecords(os.Stdout, georegion.Merge(base, overlay))
}

func readRecords(file string) ([]georegion.Record, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return georegion.DecodeRecords(file, raw)
}

// LocalesCmd lists the locales that have translations.
type LocalesCmd struct{}

func (cmd *LocalesCmd) Run(g *Globals) error {
	var roots []fs.FS
	for _, dir := range g.LocaleDir {
		roots = append(roots, os.DirFS(dir))
	}
	b, err := georegion.NewBackend(g.Locale, roots...)
	if err != nil {
		return err
	}
	locales, err := b.AvailableLocales()
	if err != nil {
		return err
	}
	for _, l := range locales {
		fmt.Println(l)
	}
	return nil
}
