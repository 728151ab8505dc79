package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Kind categorises extraction failures.
type Kind string

const (
	// KindUnreadable means every strategy failed to produce text.
	KindUnreadable Kind = "unreadable"
	// KindMalformed means a structured (tabular) file could not be parsed.
	KindMalformed Kind = "malformed"
	// KindEncoding means a text file is not valid UTF-8.
	KindEncoding Kind = "encoding"
	// KindUnsupported means the extension has no extraction strategy.
	KindUnsupported Kind = "unsupported"
)

// ExtractionError reports why a file's text could not be extracted.
type ExtractionError struct {
	Kind Kind
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.File, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.File, e.Kind)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DefaultMaxChars bounds extracted output to keep prompt size in check.
const DefaultMaxChars = 50000

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".py":   true,
	".r":    true,
	".go":   true,
	".java": true,
	".cpp":  true,
}

// Extractor turns uploaded document bytes into plain text. All strategies
// work in memory; nothing is written to disk.
type Extractor struct {
	maxChars int
}

func New(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{maxChars: maxChars}
}

// Extract dispatches on the declared extension and returns plain text or an
// *ExtractionError.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = extractPDF(data)
	case ext == ".csv":
		text, err = extractCSV(data)
	case ext == ".xlsx" || ext == ".xls":
		text, err = extractXLSX(data)
	case textExtensions[ext]:
		text, err = extractPlainText(data)
	default:
		return "", &ExtractionError{Kind: KindUnsupported, File: filename}
	}
	if err != nil {
		if extractErr, ok := err.(*ExtractionError); ok {
			extractErr.File = filename
			return "", extractErr
		}
		return "", &ExtractionError{Kind: KindUnreadable, File: filename, Err: err}
	}

	return e.truncate(text), nil
}

// truncate bounds output with a visible notice, matching upstream prompt limits.
func (e *Extractor) truncate(text string) string {
	if len(text) <= e.maxChars {
		return text
	}
	cut := text[:e.maxChars]
	// Avoid splitting a multi-byte rune at the boundary.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + fmt.Sprintf("\n\n[Content truncated - file was too long. Showing first %d characters]", e.maxChars)
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &ExtractionError{Kind: KindEncoding, Err: fmt.Errorf("content is not valid UTF-8")}
	}
	return string(data), nil
}
