package loader

import "bytes"

// JPEG stream markers. PDFs embed DCT-encoded rasters verbatim, so a byte
// scan for SOI..EOI recovers them without a PDF object parser.
var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// minJPEGStreamSize filters out thumbnail-sized and false-positive matches.
const minJPEGStreamSize = 1024

// extractJPEGStreams returns every embedded JPEG stream in the raw PDF
// bytes, in document order.
func extractJPEGStreams(raw []byte) [][]byte {
	var streams [][]byte

	offset := 0
	for {
		start := bytes.Index(raw[offset:], jpegSOI)
		if start < 0 {
			break
		}
		start += offset

		end := bytes.Index(raw[start+len(jpegSOI):], jpegEOI)
		if end < 0 {
			break
		}
		end += start + len(jpegSOI) + len(jpegEOI)

		if end-start >= minJPEGStreamSize {
			streams = append(streams, raw[start:end])
		}
		offset = end
	}

	return streams
}
