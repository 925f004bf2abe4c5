package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	content := `# The Article

## First Section

A paragraph with **bold**, *italic*, and ` + "`code`" + ` markers.

- bullet one
- bullet two

1. numbered one
2. numbered two

### Details

Closing paragraph.`

	out, err := Render("The Article", content)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
	assert.Greater(t, len(out), 1000)
}

func TestRenderEmptyContent(t *testing.T) {
	out, err := Render("Empty", "")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line     string
		wantKind lineKind
		wantText string
	}{
		{"# Title", kindH1, "Title"},
		{"## Section", kindH2, "Section"},
		{"### Sub", kindH3, "Sub"},
		{"- item", kindBullet, "item"},
		{"* item", kindBullet, "item"},
		{"3. item", kindNumbered, "3. item"},
		{"2) item", kindNumbered, "2) item"},
		{"", kindBlank, ""},
		{"   ", kindBlank, ""},
		{"plain text", kindParagraph, "plain text"},
		{"#hashtag not heading", kindParagraph, "#hashtag not heading"},
	}
	for _, tt := range tests {
		kind, text := classify(tt.line)
		assert.Equal(t, tt.wantKind, kind, tt.line)
		assert.Equal(t, tt.wantText, text, tt.line)
	}
}

func TestStripInline(t *testing.T) {
	assert.Equal(t, "bold italic code",
		stripInline("**bold** *italic* `code`"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "how-to-build-things.pdf", Filename("How to Build Things"))
	assert.Equal(t, "a-b.pdf", Filename("  A -- B!!  "))
	assert.Equal(t, "article.pdf", Filename("日本語のみ"))
	long := Filename("this is a very long title that keeps going and going and going well past any limit")
	assert.LessOrEqual(t, len(long), 64)
}
