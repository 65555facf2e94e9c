package georegion

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ulikunitz/xz"
)

// bzip2Records is "- code: COOK\n- code: DUPAGE\n" compressed with bzip2;
// the standard library can only read the format.
var bzip2Records = []byte{
	0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0xfd, 0x81, 0xcb, 0xcf, 0x00, 0x00,
	0x03, 0x5f, 0x00, 0x00, 0x10, 0x40, 0x02, 0x00, 0x10, 0x2e, 0x88, 0xc2, 0x00, 0x0e, 0x00, 0xa0,
	0x00, 0x21, 0x2a, 0x06, 0x86, 0x98, 0x8d, 0x0a, 0x1a, 0x69, 0x80, 0x0d, 0x2a, 0x08, 0x60, 0xf0,
	0xfa, 0x19, 0x5c, 0x68, 0x8c, 0x92, 0x49, 0x27, 0xc5, 0xdc, 0x91, 0x4e, 0x14, 0x24, 0x3f, 0x60,
	0x72, 0xf3, 0xc0,
}

func xzBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSourceExists(t *testing.T) {
	src := NewSource(fstest.MapFS{
		"world.yml":       {Data: []byte("- code: US\n")},
		"world/us.yml.xz": {Data: []byte("not really xz")},
		"world/ca.yml/x":  {Data: []byte("a directory named like a data file")},
	})

	tests := []struct {
		path string
		want bool
	}{
		{"world.yml", true},
		{"world/us.yml", true},
		{"world/ca.yml", false},
		{"world/mx.yml", false},
		{"./world.yml", true},
	}
	for _, tt := range tests {
		if got := src.Exists(tt.path); got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSourceLoad(t *testing.T) {
	src := NewSource(fstest.MapFS{
		"world.yml":       {Data: []byte("- alpha_2_code: US\n  numeric_code: 840\n- alpha_2_code: \"NO\"\n")},
		"empty.yml":       {Data: []byte("")},
		"mapping.yml":     {Data: []byte("code: US\n")},
		"world/us.yml.xz": {Data: []byte("corrupt")},
	})

	records, err := src.Load("world.yml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if got := records[0].Text("numeric_code"); got != "840" {
		t.Errorf("numeric_code = %q, want 840", got)
	}
	if got := records[1].Text("alpha_2_code"); got != "NO" {
		t.Errorf("alpha_2_code = %q, want NO", got)
	}

	records, err = src.Load("empty.yml")
	if err != nil || len(records) != 0 {
		t.Errorf("Load(empty) = %v, %v, want no records", records, err)
	}

	var pe *ParseError
	if _, err := src.Load("mapping.yml"); !errors.As(err, &pe) {
		t.Errorf("Load(mapping) error = %v, want ParseError", err)
	}
	if _, err := src.Load("world/us.yml"); !errors.As(err, &pe) {
		t.Errorf("Load(corrupt xz) error = %v, want ParseError", err)
	}
	if _, err := src.Load("missing.yml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestEncodeRecords(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeRecords(&buf, []Record{{"code": "CA"}, {"code": "US", "name": "USA"}})
	if err != nil {
		t.Fatalf("EncodeRecords() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "- code: CA\n") || !strings.Contains(out, "  name: USA\n") {
		t.Errorf("EncodeRecords() = %q", out)
	}
}

func TestSourceVariants(t *testing.T) {
	plain := []byte("- code: PLAIN\n")
	xzed := xzBytes(t, "- code: XZ\n")

	tests := []struct {
		name  string
		files map[string][]byte
		want  string
	}{
		{"bzip2 only", map[string][]byte{"il.yml.bz2": bzip2Records}, "COOK,DUPAGE"},
		{"xz only", map[string][]byte{"il.yml.xz": xzed}, "XZ"},
		{"plain beats xz", map[string][]byte{"il.yml": plain, "il.yml.xz": xzed}, "PLAIN"},
		{"plain beats bzip2", map[string][]byte{"il.yml": plain, "il.yml.bz2": bzip2Records}, "PLAIN"},
		{"bzip2 beats xz", map[string][]byte{"il.yml.bz2": bzip2Records, "il.yml.xz": xzed}, "COOK,DUPAGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for name, data := range tt.files {
				fsys[name] = &fstest.MapFile{Data: data}
			}
			records, err := NewSource(fsys).Load("il.yml")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			var got []string
			for _, rec := range records {
				got = append(got, rec.Text("code"))
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("codes = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeRecordsKeepsCodeText(t *testing.T) {
	raw := []byte(`
- code: 01
  population: 10
- code: 08
  alpha_2_code: NO
  alpha_3_code: 123
  numeric_code: 040
- code: 1.50
- code: ~
`)
	records, err := DecodeRecords("codes.yml", raw)
	if err != nil {
		t.Fatalf("DecodeRecords() error = %v", err)
	}

	tests := []struct {
		index int
		key   string
		want  any
	}{
		{0, "code", "01"},
		{0, "population", 10},
		{1, "code", "08"},
		{1, "alpha_2_code", "NO"},
		{1, "alpha_3_code", "123"},
		{1, "numeric_code", "040"},
		{2, "code", "1.50"},
		{3, "code", nil},
	}
	for _, tt := range tests {
		if got := records[tt.index][tt.key]; got != tt.want {
			t.Errorf("record %d %s = %#v, want %#v", tt.index, tt.key, got, tt.want)
		}
	}
}
