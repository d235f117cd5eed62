// Package loader converts uploaded files into normalized text chunks.
//
// A file is dispatched on its extension to a format handler, reduced to one
// document string, and split into sentence-aware chunks of about 1000
// characters with a 50-character overlap. The overlap keeps answers that
// span a chunk boundary retrievable.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
)

// ErrIngestionFailed is returned when file bytes cannot be parsed.
var ErrIngestionFailed = errors.New("ingestion failed")

// Splitter parameters for the final chunking pass.
const (
	// ChunkSize is the target chunk size in characters.
	ChunkSize = 1000
	// ChunkOverlap is the overlap between adjacent chunks.
	ChunkOverlap = 50
)

// File is a raw uploaded file.
type File struct {
	// Name is the declared filename, used for format dispatch.
	Name string
	// Bytes is the raw content.
	Bytes []byte
}

// ImageDescriber turns image bytes into a natural-language description.
// The index is 1-based and appears in the returned text.
type ImageDescriber interface {
	Describe(ctx context.Context, image []byte, index int) (string, error)
}

// Loader converts files of all supported formats into text chunks.
type Loader struct {
	describer   ImageDescriber
	splitter    textsplitter.RecursiveCharacter
	logger      *zap.Logger
	scratchRoot string
}

// Option configures a Loader.
type Option func(*Loader)

// WithScratchRoot sets the parent directory for per-ingestion scratch
// space. Defaults to the system temp directory.
func WithScratchRoot(dir string) Option {
	return func(l *Loader) { l.scratchRoot = dir }
}

// New creates a Loader. The describer is required for PDF and image
// handling.
func New(describer ImageDescriber, logger *zap.Logger, opts ...Option) (*Loader, error) {
	if describer == nil {
		return nil, fmt.Errorf("describer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Loader{
		describer: describer,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(ChunkSize),
			textsplitter.WithChunkOverlap(ChunkOverlap),
		),
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load converts a file into text chunks. Unsupported extensions return
// ErrUnsupportedFormat; malformed content returns ErrIngestionFailed. Zero
// chunks is not an error: a file that partitions into nothing yields an
// empty knowledge base entry.
func (l *Loader) Load(ctx context.Context, file File) ([]string, error) {
	format, err := FormatForFilename(file.Name)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loading file",
		zap.String("filename", file.Name),
		zap.String("format", format.String()),
		zap.Int("size", len(file.Bytes)),
	)

	var document string
	switch format {
	case FormatPDF:
		document, err = l.loadPDF(ctx, file)
	case FormatDOCX:
		document, err = extractDOCX(file.Bytes)
	case FormatText:
		document, err = l.loadText(ctx, file)
	case FormatCSV:
		document, err = loadCSV(file.Bytes)
	case FormatImage:
		// Images bypass the splitter: one description, one chunk.
		return l.loadImage(ctx, file)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return l.split(document)
}

// split runs the document string through the sentence-aware splitter.
func (l *Loader) split(document string) ([]string, error) {
	if strings.TrimSpace(document) == "" {
		return []string{}, nil
	}

	chunks, err := l.splitter.SplitText(document)
	if err != nil {
		return nil, fmt.Errorf("%w: splitting text: %v", ErrIngestionFailed, err)
	}
	return chunks, nil
}

// loadText reads the file as plain text.
func (l *Loader) loadText(ctx context.Context, file File) (string, error) {
	docs, err := documentloaders.NewText(bytes.NewReader(file.Bytes)).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: reading text: %v", ErrIngestionFailed, err)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.PageContent)
	}
	return strings.Join(parts, "\n"), nil
}

// loadCSV renders each record as a tab-separated line.
func loadCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: parsing csv: %v", ErrIngestionFailed, err)
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, strings.Join(record, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

// loadImage produces a single chunk from the image description. For a
// standalone image the description is the whole document, so a failed
// model call fails the ingestion.
func (l *Loader) loadImage(ctx context.Context, file File) ([]string, error) {
	description, err := l.describer.Describe(ctx, file.Bytes, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: describing %s: %v", ErrIngestionFailed, file.Name, err)
	}
	return []string{description}, nil
}
