package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDescriber returns a canned description or error.
type fakeDescriber struct {
	err   error
	calls int
}

func (d *fakeDescriber) Describe(ctx context.Context, image []byte, index int) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	return fmt.Sprintf("Page %d description:\ndescription of %d bytes\n", index, len(image)), nil
}

func newTestLoader(t *testing.T, describer ImageDescriber) *Loader {
	t.Helper()
	l, err := New(describer, zap.NewNop(), WithScratchRoot(t.TempDir()))
	require.NoError(t, err)
	return l
}

func TestNewRequiresDescriber(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestFormatForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{filename: "report.pdf", want: FormatPDF},
		{filename: "REPORT.PDF", want: FormatPDF},
		{filename: "letter.docx", want: FormatDOCX},
		{filename: "notes.txt", want: FormatText},
		{filename: "data.csv", want: FormatCSV},
		{filename: "chart.png", want: FormatImage},
		{filename: "photo.JPG", want: FormatImage},
		{filename: "photo.jpeg", want: FormatImage},
		{filename: "diagram.svg", want: FormatImage},
		{filename: "archive.zip", wantErr: true},
		{filename: "legacy.doc", wantErr: true},
		{filename: "noextension", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := FormatForFilename(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	scratch := t.TempDir()
	l, err := New(&fakeDescriber{}, zap.NewNop(), WithScratchRoot(scratch))
	require.NoError(t, err)

	_, err = l.Load(context.Background(), File{Name: "virus.exe", Bytes: []byte("MZ")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "no scratch space may be left behind")
}

func TestLoadText(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	chunks, err := l.Load(context.Background(), File{
		Name:  "notes.txt",
		Bytes: []byte("hello world"),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestLoadTextEmpty(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	chunks, err := l.Load(context.Background(), File{Name: "empty.txt", Bytes: []byte("   \n  ")})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLoadTextLongDocumentSplits(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "Sentence number %d carries some weight in this document. ", i)
	}

	chunks, err := l.Load(context.Background(), File{Name: "long.txt", Bytes: []byte(sb.String())})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestLoadCSV(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	chunks, err := l.Load(context.Background(), File{
		Name:  "data.csv",
		Bytes: []byte("name,age\nalice,30\nbob,25\n"),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "name\tage\nalice\t30\nbob\t25", chunks[0])
}

func TestLoadCSVRaggedRows(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	chunks, err := l.Load(context.Background(), File{
		Name:  "ragged.csv",
		Bytes: []byte("a,b,c\nd\n"),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a\tb\tc\nd", chunks[0])
}

func TestLoadCSVMalformed(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{})

	_, err := l.Load(context.Background(), File{
		Name:  "bad.csv",
		Bytes: []byte("a,\"unterminated\n"),
	})
	assert.ErrorIs(t, err, ErrIngestionFailed)
}

func TestLoadImageSingleChunk(t *testing.T) {
	describer := &fakeDescriber{}
	l := newTestLoader(t, describer)

	chunks, err := l.Load(context.Background(), File{
		Name:  "chart.png",
		Bytes: []byte("\x89PNG\r\n\x1a\nrest"),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Page 1 description")
	assert.Equal(t, 1, describer.calls)
}

func TestLoadImageDescriptionFailure(t *testing.T) {
	l := newTestLoader(t, &fakeDescriber{err: errors.New("model down")})

	_, err := l.Load(context.Background(), File{Name: "chart.png", Bytes: []byte("bytes")})
	assert.ErrorIs(t, err, ErrIngestionFailed)
}
