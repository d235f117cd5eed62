package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"go.uber.org/zap"
)

// loadPDF runs the full PDF pipeline: partition the text by title,
// extract embedded raster images to a scratch directory, describe each
// image in filename-sorted order, and concatenate text first, then the
// newline-joined descriptions, into one document string.
//
// The scratch directory is removed on every exit path.
func (l *Loader) loadPDF(ctx context.Context, file File) (string, error) {
	scratch, err := os.MkdirTemp(l.scratchRoot, "ragd-ingest-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating scratch dir: %v", ErrIngestionFailed, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			l.logger.Warn("failed to remove scratch dir", zap.String("dir", scratch), zap.Error(rmErr))
		}
	}()

	text, err := l.partitionPDFText(ctx, file.Bytes)
	if err != nil {
		return "", err
	}

	descriptions := l.describePDFImages(ctx, file.Bytes, filepath.Join(scratch, "images"))

	return text + "\n" + strings.Join(descriptions, "\n"), nil
}

// partitionPDFText extracts per-page text and recombines it with the
// by-title strategy. A PDF that partitions into zero elements yields an
// empty string, not an error.
func (l *Loader) partitionPDFText(ctx context.Context, raw []byte) (string, error) {
	docs, err := documentloaders.NewPDF(bytes.NewReader(raw), int64(len(raw))).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: partitioning pdf: %v", ErrIngestionFailed, err)
	}

	var elements []string
	for _, doc := range docs {
		for _, block := range strings.Split(doc.PageContent, "\n\n") {
			if strings.TrimSpace(block) != "" {
				elements = append(elements, strings.TrimSpace(block))
			}
		}
	}

	return strings.Join(combineByTitle(elements), " "), nil
}

// describePDFImages extracts embedded JPEG streams into imageDir and
// describes them in filename-sorted, 1-indexed order. A failed description
// skips that image and keeps going; a single bad image must not void the
// document.
func (l *Loader) describePDFImages(ctx context.Context, raw []byte, imageDir string) []string {
	images := extractJPEGStreams(raw)
	if len(images) == 0 {
		return nil
	}

	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		l.logger.Warn("failed to create image dir, skipping image descriptions", zap.Error(err))
		return nil
	}

	for i, img := range images {
		name := filepath.Join(imageDir, fmt.Sprintf("image_%03d.jpg", i+1))
		if err := os.WriteFile(name, img, 0o644); err != nil {
			l.logger.Warn("failed to write extracted image", zap.String("path", name), zap.Error(err))
		}
	}

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		l.logger.Warn("failed to list image dir", zap.Error(err))
		return nil
	}

	var descriptions []string
	index := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		index++

		img, err := os.ReadFile(filepath.Join(imageDir, entry.Name()))
		if err != nil {
			l.logger.Warn("failed to read extracted image", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}

		description, err := l.describer.Describe(ctx, img, index)
		if err != nil {
			l.logger.Warn("image description failed, skipping image",
				zap.String("name", entry.Name()),
				zap.Int("index", index),
				zap.Error(err),
			)
			continue
		}

		descriptions = append(descriptions, fmt.Sprintf("Image %s: %s", entry.Name(), description))
	}

	return descriptions
}
