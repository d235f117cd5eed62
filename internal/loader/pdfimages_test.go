package loader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJPEG builds a JPEG-framed byte stream of the requested payload size.
func fakeJPEG(payload int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	buf.Write(bytes.Repeat([]byte{0x42}, payload))
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func TestExtractJPEGStreams(t *testing.T) {
	img1 := fakeJPEG(2000)
	img2 := fakeJPEG(3000)

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4 some objects ")
	pdf.Write(img1)
	pdf.WriteString(" more objects ")
	pdf.Write(img2)
	pdf.WriteString(" trailer")

	streams := extractJPEGStreams(pdf.Bytes())
	require.Len(t, streams, 2)
	assert.Equal(t, img1, streams[0])
	assert.Equal(t, img2, streams[1])
}

func TestExtractJPEGStreamsIgnoresTiny(t *testing.T) {
	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4 ")
	pdf.Write(fakeJPEG(10)) // under the size floor
	pdf.WriteString(" trailer")

	assert.Empty(t, extractJPEGStreams(pdf.Bytes()))
}

func TestExtractJPEGStreamsNone(t *testing.T) {
	assert.Empty(t, extractJPEGStreams([]byte("%PDF-1.4 no images here")))
	assert.Empty(t, extractJPEGStreams(nil))
}

func TestExtractJPEGStreamsUnterminated(t *testing.T) {
	var pdf bytes.Buffer
	pdf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	pdf.Write(bytes.Repeat([]byte{0x42}, 2000))
	// No EOI marker.

	assert.Empty(t, extractJPEGStreams(pdf.Bytes()))
}
