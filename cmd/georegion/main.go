// Command georegion browses, validates and merges region datasets.
//
// Usage:
//
//	georegion list us
//	georegion show world.us.il --locale de
//	georegion tree es --depth 2
//	georegion validate --data-dir ./data --overlay-dir ./overlay
//	georegion merge data/world.yml overlay/world.yml
//
// Settings can also come from the environment (GEOREGION_DATA_DIR,
// GEOREGION_OVERLAY_DIR, GEOREGION_LOCALE_DIR, GEOREGION_LOCALE, LOG_LEVEL,
// LOG_FORMAT) or from a .env file; GEOREGION_ENV_FILE names another one.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/andreiashu/georegion"
	"github.com/andreiashu/georegion/internal/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// Globals are the flags shared by every command.
type Globals struct {
	DataDir    string   `name:"data-dir" type:"path" env:"GEOREGION_DATA_DIR" help:"Base data directory (default: embedded data)"`
	OverlayDir string   `name:"overlay-dir" type:"path" env:"GEOREGION_OVERLAY_DIR" help:"Overlay data directory merged over the base data"`
	LocaleDir  []string `name:"locale-dir" type:"path" env:"GEOREGION_LOCALE_DIR" help:"Extra locale directories layered over the embedded ones"`
	Locale     string   `name:"locale" short:"l" default:"en" env:"GEOREGION_LOCALE" help:"Locale for region names"`
	Strict     bool     `name:"strict" help:"Fail on records without code or alpha_2_code"`
	LogLevel   string   `name:"log-level" env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat  string   `name:"log-format" env:"LOG_FORMAT" default:"text" enum:"text,json" help:"Log format"`
	Metrics    bool     `name:"metrics" help:"Print loader metrics to stderr when done"`
}

// CLI defines the command-line interface using Kong.
var CLI struct {
	Globals

	List     ListCmd     `cmd:"" help:"List the subregions of a region"`
	Show     ShowCmd     `cmd:"" help:"Show details of a region"`
	Tree     TreeCmd     `cmd:"" help:"Print a region and its descendants"`
	Find     FindCmd     `cmd:"" help:"Find a subregion by name"`
	Nearest  NearestCmd  `cmd:"" help:"Find the subregion closest to a point"`
	Validate ValidateCmd `cmd:"" help:"Load every region and report problems"`
	Merge    MergeCmd    `cmd:"" help:"Merge an overlay file into a base file and print the result"`
	Locales  LocalesCmd  `cmd:"" help:"List available locales"`
}

func (g *Globals) options() []georegion.Option {
	var opts []georegion.Option
	if g.DataDir != "" {
		opts = append(opts, georegion.WithDataDir(g.DataDir))
	}
	if g.OverlayDir != "" {
		opts = append(opts, georegion.WithOverlayDir(g.OverlayDir))
	}
	for _, dir := range g.LocaleDir {
		opts = append(opts, georegion.WithLocaleDir(dir))
	}
	if g.Strict {
		opts = append(opts, georegion.WithStrictRecords())
	}
	return append(opts, georegion.WithLocale(g.Locale))
}

func (g *Globals) world() (*georegion.Region, error) {
	return georegion.NewWorld(g.options()...)
}

func envFile() string {
	if f := os.Getenv("GEOREGION_ENV_FILE"); f != "" {
		return f
	}
	return ".env"
}

func main() {
	_ = godotenv.Load(envFile())

	ctx := kong.Parse(&CLI,
		kong.Name("georegion"),
		kong.Description("Browse and check hierarchical region data"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logger.Setup(CLI.LogLevel, CLI.LogFormat)

	reg := prometheus.NewRegistry()
	if CLI.Metrics {
		ctx.FatalIfErrorf(georegion.RegisterMetrics(reg))
	}
	err := ctx.Run(&CLI.Globals)
	if CLI.Metrics {
		if perr := printMetrics(os.Stderr, reg); perr != nil && err == nil {
			err = perr
		}
	}
	ctx.FatalIfErrorf(err)
}

// printMetrics writes one line per gathered sample.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
