// Package georegion models the world as a tree of regions (world, countries,
// subdivisions, ...) loaded lazily from YAML data files, with localized names
// and an optional overlay dataset merged over the base data.
//
// Data files mirror the tree. The root file (world.yml) lists countries;
// the children of a region live one directory deeper, named after the
// lower-cased codes of its ancestors:
//
//	world.yml
//	world/us.yml
//	world/us/il.yml
//
// Names come from a Translator keyed by the region path plus field name,
// e.g. "world.us.il.name".
//
// A region tree is not safe for concurrent use: subregion caches are filled
// on first access without locking. Guard a shared tree externally.
package georegion

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/andreiashu/georegion/i18n"
	"github.com/andreiashu/georegion/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed data locale
var embedded embed.FS

// DefaultWorldFile is the root data file, relative to the data directory.
const DefaultWorldFile = "world.yml"

// rootSegment is the path of the root region and the first segment of every
// other path.
const rootSegment = "world"

// Translator resolves a dotted key to display text in the active locale.
// A key without a translation must produce an error wrapping
// ErrMissingTranslation.
type Translator interface {
	Translate(key string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(key string) (string, error)

// Translate calls f(key).
func (f TranslatorFunc) Translate(key string) (string, error) { return f(key) }

// Config contains the options used to build a region tree.
type Config struct {
	Data        fs.FS        // Base data tree (default: embedded data)
	Overlay     fs.FS        // Optional overlay tree of the same shape
	WorldFile   string       // Root data file (default: "world.yml")
	Translator  Translator   // Overrides the built-in YAML locale backend
	LocaleRoots []fs.FS      // Extra locale trees layered over the embedded ones
	Locale      string       // Active locale for the built-in backend (default: "en")
	Logger      *slog.Logger // Default: slog.Default()
	Strict      bool         // Reject records without code and alpha_2_code
}

// Option is a functional option for configuring a region tree.
type Option func(*Config)

// WithDataDir reads base data from a directory on disk.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.Data = os.DirFS(dir)
	}
}

// WithDataFS reads base data from fsys.
func WithDataFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.Data = fsys
	}
}

// WithOverlayDir merges data from a directory on disk over the base data.
func WithOverlayDir(dir string) Option {
	return func(c *Config) {
		c.Overlay = os.DirFS(dir)
	}
}

// WithOverlayFS merges data from fsys over the base data.
func WithOverlayFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.Overlay = fsys
	}
}

// WithWorldFile sets the root data file name.
func WithWorldFile(name string) Option {
	return func(c *Config) {
		c.WorldFile = name
	}
}

// WithTranslator replaces the built-in locale backend. WithLocale and
// WithLocaleDir have no effect together with it.
func WithTranslator(t Translator) Option {
	return func(c *Config) {
		c.Translator = t
	}
}

// WithLocaleDir layers a directory of locale files over the embedded ones.
func WithLocaleDir(dir string) Option {
	return func(c *Config) {
		c.LocaleRoots = append(c.LocaleRoots, os.DirFS(dir))
	}
}

// WithLocaleFS layers fsys over the embedded locale files.
func WithLocaleFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.LocaleRoots = append(c.LocaleRoots, fsys)
	}
}

// WithLocale sets the active locale of the built-in backend.
func WithLocale(locale string) Option {
	return func(c *Config) {
		c.Locale = locale
	}
}

// WithLogger sets the logger used while loading data.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithStrictRecords makes loading fail on records that have neither a code
// nor an alpha_2_code, instead of logging a warning.
func WithStrictRecords() Option {
	return func(c *Config) {
		c.Strict = true
	}
}

func defaultConfig() *Config {
	return &Config{
		WorldFile: DefaultWorldFile,
		Locale:    i18n.DefaultLocale,
	}
}

// EmbeddedData returns the data tree compiled into the package.
func EmbeddedData() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err) // the directory is embedded, fs.Sub cannot fail
	}
	return sub
}

// EmbeddedLocales returns the locale tree compiled into the package.
func EmbeddedLocales() fs.FS {
	sub, err := fs.Sub(embedded, "locale")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewBackend returns the built-in translation backend: the embedded locale
// files with roots layered on top, set to locale.
func NewBackend(locale string, roots ...fs.FS) (*i18n.Backend, error) {
	b := i18n.NewBackend(append([]fs.FS{EmbeddedLocales()}, roots...)...)
	if err := b.SetLocale(locale); err != nil {
		return nil, err
	}
	return b, nil
}

// tree is the loading context shared by every region of one world.
type tree struct {
	base       *Source
	overlay    *Source
	translator Translator
	logger     *slog.Logger
	strict     bool
}

// NewWorld returns the root region of a tree built from the options.
//
// Example:
//
//	world, err := georegion.NewWorld(georegion.WithLocale("de"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	countries, err := world.Subregions()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	us, _ := countries.ByCode("US")
//	fmt.Println(us.Name(), us.Path()) // Vereinigte Staaten world.us
func NewWorld(opts ...Option) (*Region, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Data == nil {
		cfg.Data = EmbeddedData()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t := &tree{
		base:       NewSource(cfg.Data),
		translator: cfg.Translator,
		logger:     cfg.Logger,
		strict:     cfg.Strict,
	}
	if cfg.Overlay != nil {
		t.overlay = NewSource(cfg.Overlay)
	}
	if t.translator == nil {
		b, err := NewBackend(cfg.Locale, cfg.LocaleRoots...)
		if err != nil {
			return nil, err
		}
		t.translator = b
	}

	if !t.base.Exists(cfg.WorldFile) {
		return nil, fmt.Errorf("world data file %s: %w", cfg.WorldFile, fs.ErrNotExist)
	}
	return &Region{tree: t, typ: rootSegment, code: rootSegment, dataPath: cfg.WorldFile}, nil
}

// Singleton pattern for the default world.
var (
	defaultWorld     *Region
	defaultWorldOnce sync.Once
	defaultWorldErr  error
)

// GetDefaultWorld returns a shared world built from the embedded data in the
// default locale, initializing it on first call. The returned tree has the
// same concurrency limits as any other.
func GetDefaultWorld() (*Region, error) {
	defaultWorldOnce.Do(func() {
		defaultWorld, defaultWorldErr = NewWorld()
	})
	return defaultWorld, defaultWorldErr
}

// RegisterMetrics registers the loader's Prometheus collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	return metrics.Register(reg)
}
