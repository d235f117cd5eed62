package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions the loader does not
// handle. The extension is included in the wrapping error.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format enumerates the supported document formats. Dispatch happens on
// this closed set rather than on raw extension strings so every handler is
// checked exhaustively.
type Format int

const (
	// FormatPDF is the PDF pipeline: by-title partitioning plus embedded
	// image description.
	FormatPDF Format = iota
	// FormatDOCX extracts paragraphs from word/document.xml.
	FormatDOCX
	// FormatText ingests the raw bytes as text.
	FormatText
	// FormatCSV joins each row with tabs, rows with newlines.
	FormatCSV
	// FormatImage produces a single chunk from the image description.
	FormatImage
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatText:
		return "text"
	case FormatCSV:
		return "csv"
	case FormatImage:
		return "image"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatForFilename resolves a filename to a Format by its extension,
// case-insensitively. Unknown extensions return ErrUnsupportedFormat.
func FormatForFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	case ".png", ".jpg", ".jpeg", ".svg":
		return FormatImage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
