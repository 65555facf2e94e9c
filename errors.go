package georegion

import (
	"errors"
	"fmt"

	"github.com/andreiashu/georegion/i18n"
)

var (
	// ErrMissingTranslation is returned (wrapped) when a required localized
	// field has no translation in the active locale chain.
	ErrMissingTranslation = i18n.ErrMissingTranslation

	// ErrNotFound indicates that a collection holds no region for a code.
	ErrNotFound = errors.New("region not found")

	// ErrOutOfRange indicates a positional lookup outside a collection.
	ErrOutOfRange = errors.New("index out of range")

	// ErrMalformedRecord is returned in strict mode for records that carry
	// neither a code nor an alpha-2 code.
	ErrMalformedRecord = errors.New("malformed record")
)

// TranslationError reports a translated field that could not be resolved
// while constructing a region.
type TranslationError struct {
	Key string // Dotted translation key, e.g. "world.us.il.name"
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating %s: %v", e.Key, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// NotFoundError reports a failed lookup in a collection.
type NotFoundError struct {
	Key string // Code, name or path that was looked up
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("region not found: %q", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ParseError reports a data file that could not be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RecordError reports a rejected record in strict mode.
type RecordError struct {
	Path  string // Data file the record came from
	Index int    // Position of the record after merging
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d has neither code nor alpha_2_code", e.Path, e.Index)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }
