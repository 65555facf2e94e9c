package georegion

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

// variant is one on-disk form of a data file. The plain file is tried first,
// then compressed copies stored next to it.
type variant struct {
	ext  string
	wrap func(io.Reader) (io.Reader, error)
}

var variants = []variant{
	{ext: ""},
	{ext: ".bz2", wrap: func(r io.Reader) (io.Reader, error) { return bzip2.NewReader(r), nil }},
	{ext: ".xz", wrap: func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) }},
}

// Source reads data files, addressed by slash-separated paths relative to
// its root.
type Source struct {
	fsys fs.FS
}

// NewSource returns a Source reading from fsys.
func NewSource(fsys fs.FS) *Source {
	return &Source{fsys: fsys}
}

// NewDirSource returns a Source reading from a directory on disk.
func NewDirSource(dir string) *Source {
	return NewSource(os.DirFS(dir))
}

func (s *Source) find(p string) (string, variant, bool) {
	p = path.Clean(p)
	for _, v := range variants {
		if fi, err := fs.Stat(s.fsys, p+v.ext); err == nil && !fi.IsDir() {
			return p + v.ext, v, true
		}
	}
	return "", variant{}, false
}

// Exists reports whether a data file (plain or compressed) is present at p.
func (s *Source) Exists(p string) bool {
	_, _, ok := s.find(p)
	return ok
}

// ReadFile returns the decompressed contents of the data file at p. A
// missing file yields an error wrapping fs.ErrNotExist.
func (s *Source) ReadFile(p string) ([]byte, error) {
	name, v, ok := s.find(p)
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", p, fs.ErrNotExist)
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	var r io.Reader = f
	if v.wrap != nil {
		if r, err = v.wrap(f); err != nil {
			return nil, &ParseError{Path: name, Err: err}
		}
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return raw, nil
}

// Load reads the data file at p and returns its records in file order.
func (s *Source) Load(p string) ([]Record, error) {
	raw, err := s.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(p, raw)
}

// textKeys are kept exactly as written in the file, so that codes such as
// 01 or 840 are not turned into numbers.
var textKeys = map[string]bool{
	keyCode:    true,
	keyAlpha2:  true,
	keyAlpha3:  true,
	keyNumeric: true,
}

// DecodeRecords parses a YAML sequence of mappings. An empty document yields
// no records. Code fields hold their source text even when unquoted.
func DecodeRecords(name string, raw []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	var records []Record
	if err := doc.Decode(&records); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	if seq := doc.Content[0]; seq.Kind == yaml.SequenceNode && len(seq.Content) == len(records) {
		for i, item := range seq.Content {
			keepText(records[i], item)
		}
	}
	return records, nil
}

func keepText(rec Record, item *yaml.Node) {
	if rec == nil || item.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(item.Content); i += 2 {
		k, v := item.Content[i], item.Content[i+1]
		if textKeys[k.Value] && v.Kind == yaml.ScalarNode && v.Tag != "!!null" {
			rec[k.Value] = v.Value
		}
	}
}

// EncodeRecords writes records as a YAML sequence.
func EncodeRecords(w io.Writer, records []Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// readOptional reads p if present; a missing file yields (nil, nil).
func (s *Source) readOptional(p string) ([]byte, error) {
	raw, err := s.ReadFile(p)
	if isNotExist(err) {
		return nil, nil
	}
	return raw, err
}
