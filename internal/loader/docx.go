package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls paragraph text out of word/document.xml. Runs within a
// paragraph are concatenated, paragraphs are joined with newlines. Tables,
// images and styling are dropped.
func extractDOCX(content []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: opening docx archive: %v", ErrIngestionFailed, err)
	}

	var document io.ReadCloser
	for _, entry := range archive.File {
		if entry.Name == "word/document.xml" {
			document, err = entry.Open()
			if err != nil {
				return "", fmt.Errorf("%w: opening document.xml: %v", ErrIngestionFailed, err)
			}
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("%w: docx has no word/document.xml", ErrIngestionFailed)
	}
	defer document.Close()

	return parseDocumentXML(document)
}

// parseDocumentXML streams the WordprocessingML token by token, collecting
// character data inside w:t elements and closing a paragraph at each w:p
// end tag.
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var paragraph strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parsing document.xml: %v", ErrIngestionFailed, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(paragraph.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				paragraph.Reset()
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
