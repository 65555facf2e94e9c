// Package i18n provides a YAML translation backend addressed by dotted keys
// such as "world.us.il.name".
//
// Locale files are nested maps whose top-level key is the locale:
//
//	en:
//	  world:
//	    us:
//	      name: United States
//
// Every *.yml or *.yaml file under each configured root is loaded. Roots are
// applied in order, so a later root overrides keys of an earlier one.
//
// A Backend is not safe for concurrent use. Configure it (roots and locale)
// before handing it to a region tree and leave it alone while the tree is in
// use.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the last locale consulted before a lookup fails.
const DefaultLocale = "en"

// ErrMissingTranslation is wrapped by Translate when no locale in the
// fallback chain has the key.
var ErrMissingTranslation = errors.New("missing translation")

// Backend resolves dotted keys against YAML locale files.
type Backend struct {
	roots         []fs.FS
	locale        language.Tag
	defaultLocale language.Tag
	entries       map[string]map[string]string // locale -> key -> text, nil until loaded
}

// NewBackend returns a Backend reading the given roots, with the current
// and default locale set to DefaultLocale.
func NewBackend(roots ...fs.FS) *Backend {
	return &Backend{
		roots:         slices.Clone(roots),
		locale:        language.English,
		defaultLocale: language.English,
	}
}

// AppendFS adds a locale root whose keys override those already loaded.
func (b *Backend) AppendFS(fsys fs.FS) {
	b.roots = append(b.roots, fsys)
	b.entries = nil
}

// Reset drops loaded translations; the next lookup reads the roots again.
func (b *Backend) Reset() {
	b.entries = nil
}

// SetLocale sets the active locale from a BCP 47 tag such as "de" or "pt-BR".
func (b *Backend) SetLocale(locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	b.locale = tag
	return nil
}

// SetDefaultLocale sets the locale consulted after the active locale chain.
func (b *Backend) SetDefaultLocale(locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parsing default locale %q: %w", locale, err)
	}
	b.defaultLocale = tag
	return nil
}

// Locale returns the active locale tag.
func (b *Backend) Locale() string {
	return b.locale.String()
}

// Translate returns the text for key in the active locale. Lookup order is
// the active tag, its CLDR parents (de-AT, de), then the default locale.
func (b *Backend) Translate(key string) (string, error) {
	if err := b.load(); err != nil {
		return "", err
	}
	for _, loc := range b.chain() {
		if text, ok := b.entries[loc][key]; ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %s (locale %s)", ErrMissingTranslation, key, b.locale)
}

// AvailableLocales returns the locales present in the loaded files, sorted.
func (b *Backend) AvailableLocales() ([]string, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	locales := make([]string, 0, len(b.entries))
	for loc := range b.entries {
		locales = append(locales, loc)
	}
	slices.Sort(locales)
	return locales, nil
}

// Match returns the available locale that best serves the preferred tags,
// e.g. the values of an Accept-Language list or $LANG.
func (b *Backend) Match(preferred ...string) (string, error) {
	available, err := b.AvailableLocales()
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return b.defaultLocale.String(), nil
	}
	tags := make([]language.Tag, 0, len(available)+1)
	// The default locale goes first so it wins when nothing matches.
	tags = append(tags, b.defaultLocale)
	for _, loc := range available {
		tags = append(tags, language.Make(loc))
	}
	var prefs []language.Tag
	for _, p := range preferred {
		if tag, err := language.Parse(p); err == nil {
			prefs = append(prefs, tag)
		}
	}
	_, idx, _ := language.NewMatcher(tags).Match(prefs...)
	return tags[idx].String(), nil
}

func (b *Backend) chain() []string {
	var out []string
	add := func(t language.Tag) {
		if s := t.String(); !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	for t := b.locale; t != language.Und; {
		add(t)
		parent := t.Parent()
		if parent == t {
			break
		}
		t = parent
	}
	add(b.defaultLocale)
	return out
}

func (b *Backend) load() error {
	if b.entries != nil {
		return nil
	}
	entries := make(map[string]map[string]string)
	for _, root := range b.roots {
		err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(path.Ext(p)) {
			case ".yml", ".yaml":
			default:
				return nil
			}
			return loadFile(root, p, entries)
		})
		if err != nil {
			return fmt.Errorf("loading locale files: %w", err)
		}
	}
	b.entries = entries
	return nil
}

func loadFile(root fs.FS, p string, entries map[string]map[string]string) error {
	raw, err := fs.ReadFile(root, p)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding %s: %w", p, err)
	}
	for loc, tree := range doc {
		tag, err := language.Parse(loc)
		if err != nil {
			return fmt.Errorf("%s: top-level key %q is not a locale: %w", p, loc, err)
		}
		key := tag.String()
		if entries[key] == nil {
			entries[key] = make(map[string]string)
		}
		flatten(tree, "", entries[key])
	}
	return nil
}

// flatten writes the leaves of a decoded YAML tree into out under dotted keys.
func flatten(node any, prefix string, out map[string]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(child, join(k), out)
		}
	case map[any]any:
		for k, child := range v {
			flatten(child, join(fmt.Sprint(k)), out)
		}
	case nil:
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(v)
		}
	}
}
