// Package describer turns images into natural-language descriptions via a
// vision-capable model.
package describer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrDescriptionFailed indicates the vision model call failed. Callers are
// expected to skip the offending image and continue; a single bad image
// must not void an entire document.
var ErrDescriptionFailed = errors.New("image description failed")

// Vision call parameters, held constant: the upstream deployment used
// temperature 1 with a 1024-token cap for image analysis.
const (
	visionTemperature = 1.0
	visionMaxTokens   = 1024
)

// instruction is the fixed analytical prompt sent with every image.
const instruction = `This image may contain visual data like tables, charts, or graphs, as well as textual descriptions. Please follow these steps:
1. **Analyze** the visual data for any significant trends, patterns, or key takeaways.
2. **Summarize** important insights, such as how the data changes over time or across categories. Note any spikes, drops, or shifts in the data.
3. Identify **anomalies**, **outliers**, or unusual data points and mention their potential significance.
4. **Ignore** irrelevant elements (e.g., images of people) unless they directly contribute to understanding the data.
5. Focus on **describing the data** in terms of key trends and insights, rather than just explaining what is visible.
6. Provide a **comprehensive overview** that includes an analysis of both the visual content and the article's text (if applicable).
7. Only provide answers based on available information.
8. Do not explicitly provide the answer step by step.`

// VisionModel is the model call the describer needs.
type VisionModel interface {
	CompleteVision(ctx context.Context, instruction string, image []byte, mimeType string, temperature float64, maxTokens int) (string, error)
}

// Describer produces page-indexed descriptions of images.
type Describer struct {
	model  VisionModel
	logger *zap.Logger
}

// New creates a Describer.
func New(model VisionModel, logger *zap.Logger) (*Describer, error) {
	if model == nil {
		return nil, fmt.Errorf("vision model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Describer{model: model, logger: logger}, nil
}

// Describe sends one non-streaming multimodal request for the image and
// returns "Page <n> description:\n<text>\n". The index is 1-based.
func (d *Describer) Describe(ctx context.Context, image []byte, index int) (string, error) {
	text, err := d.model.CompleteVision(ctx, instruction, image, mimeTypeOf(image), visionTemperature, visionMaxTokens)
	if err != nil {
		return "", fmt.Errorf("%w: image %d: %v", ErrDescriptionFailed, index, err)
	}

	return fmt.Sprintf("Page %d description:\n%s\n", index, text), nil
}

// mimeTypeOf sniffs the image format from magic bytes. JPEG is the
// fallback since PDF-extracted rasters are DCT streams.
func mimeTypeOf(image []byte) string {
	switch {
	case len(image) >= 8 && string(image[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(image) >= 5 && (string(image[:5]) == "<?xml" || string(image[:4]) == "<svg"):
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}
