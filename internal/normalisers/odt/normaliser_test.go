package odt

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/segmenter"
)

const textNS = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"`

func buildODT(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("content.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><office:document-content ` + textNS +
		`><office:body><office:text>` + body + `</office:text></office:body></office:document-content>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFormat(t *testing.T) {
	assert.Equal(t, domain.FormatODT, New(segmenter.New()).Format())
}

func TestNormalise_Sections(t *testing.T) {
	body := `<text:p>Opening words.</text:p>` +
		`<text:h text:outline-level="1">First</text:h>` +
		`<text:p>One<text:s text:c="2"/>two.</text:p>` +
		`<text:p><text:span>Styled</text:span> span.</text:p>` +
		`<text:h text:outline-level="1">Nothing here</text:h>` +
		`<text:h text:outline-level="2">Second</text:h>` +
		`<text:list><text:list-item><text:p>Listed item.</text:p></text:list-item></text:list>`

	doc, err := New(segmenter.New()).Normalise(context.Background(), "notes.odt", buildODT(t, body))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "First", "Second"}, doc.SectionLabels())
	assert.Equal(t, []string{"Opening words.", "One two.", "Styled span.", "Listed item."}, doc.Texts())
}

func TestSpaceCount(t *testing.T) {
	space := func(attrs ...xml.Attr) xml.StartElement {
		return xml.StartElement{Name: xml.Name{Local: "s"}, Attr: attrs}
	}
	count := func(v string) xml.Attr {
		return xml.Attr{Name: xml.Name{Space: "text", Local: "c"}, Value: v}
	}

	assert.Equal(t, 1, spaceCount(space()))
	assert.Equal(t, 3, spaceCount(space(count("3"))))
	assert.Equal(t, 1, spaceCount(space(count("-4"))))
	assert.Equal(t, 1, spaceCount(space(count("many"))))
	assert.Equal(t, maxSpaces, spaceCount(space(count("2000000000"))))
}

func TestNormalise_HugeSpaceRun(t *testing.T) {
	body := `<text:p>Before<text:s text:c="2000000000"/>after.</text:p>`

	doc, err := New(segmenter.New()).Normalise(context.Background(), "huge.odt", buildODT(t, body))
	require.NoError(t, err)

	assert.Equal(t, []string{"Before after."}, doc.Texts())
}

func TestNormalise_Malformed(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(os.Stderr)

	n := New(segmenter.New())

	doc, err := n.Normalise(context.Background(), "bad.odt", []byte("garbage"))
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)

	doc, err = n.Normalise(context.Background(), "bad.odt", buildODT(t, `<text:p>unclosed`))
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)

	assert.Contains(t, logs.String(), "[WARN]")
}

func TestNormalise_MissingContent(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("meta.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	logger.SetOutput(&bytes.Buffer{})
	defer logger.SetOutput(os.Stderr)

	doc, err := New(segmenter.New()).Normalise(context.Background(), "empty.odt", buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
}
