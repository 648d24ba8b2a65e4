package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_PlainText(t *testing.T) {
	out, err := Text("book.txt", []byte("  a plain text book \n"))
	require.NoError(t, err)
	assert.Equal(t, "a plain text book", out)
}

func TestText_HTML(t *testing.T) {
	out, err := Text("book.html", []byte("<html><body><h1>Title</h1><p>First paragraph.</p></body></html>"))
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "First paragraph.")
	assert.NotContains(t, out, "<p>")
}

func TestText_UnknownExtensionWithMarkup(t *testing.T) {
	out, err := Text("book.data", []byte("<div>wrapped text</div>"))
	require.NoError(t, err)
	assert.Equal(t, "wrapped text", out)
}

func TestText_UnknownExtensionPlain(t *testing.T) {
	out, err := Text("book.data", []byte("no markup here"))
	require.NoError(t, err)
	assert.Equal(t, "no markup here", out)
}

func TestText_InvalidUTF8(t *testing.T) {
	out, err := Text("book.txt", []byte{'o', 'k', 0xff, 0xfe, '!'})
	require.NoError(t, err)
	assert.Equal(t, "ok!", out)
}
