package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/ikasoba/notebox/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNote() *core.Note {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	content := "Shopping list #home\n\n- **milk**\n- eggs"
	d := core.Derive(content)
	return &core.Note{
		ID:               "n-1",
		Title:            "Weekend: plans/ideas",
		Content:          content,
		PlainTextContent: d.PlainText,
		Tags:             d.Tags,
		Folder:           "home",
		IsPinned:         true,
		CreatedAt:        created,
		UpdatedAt:        created.Add(time.Hour),
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, testNote(), testNote()))

	var got []core.Note
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "n-1", got[0].ID)
}

func TestMarkdown(t *testing.T) {
	n := testNote()

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, n))

	var meta struct {
		ID        string    `yaml:"id"`
		Title     string    `yaml:"title"`
		Tags      []string  `yaml:"tags"`
		Folder    string    `yaml:"folder"`
		Pinned    bool      `yaml:"pinned"`
		CreatedAt time.Time `yaml:"created_at"`
	}

	body, err := frontmatter.Parse(&buf, &meta)
	require.NoError(t, err)

	assert.Equal(t, n.ID, meta.ID)
	assert.Equal(t, n.Title, meta.Title)
	assert.Equal(t, []string{"home"}, meta.Tags)
	assert.Equal(t, "home", meta.Folder)
	assert.True(t, meta.Pinned)
	assert.True(t, meta.CreatedAt.Equal(n.CreatedAt))
	assert.Equal(t, n.Content, strings.TrimSpace(string(body)))
}

func TestHTML(t *testing.T) {
	n := testNote()
	n.Title = "Fish & <Chips>"
	n.Content += "\n\n<p class=\"raw\">kept</p>"

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, n))

	out := buf.String()
	assert.Contains(t, out, "<title>Fish &amp; &lt;Chips&gt;</title>")
	assert.Contains(t, out, "<strong>milk</strong>")
	assert.Contains(t, out, "<li>eggs</li>")
	assert.Contains(t, out, `<p class="raw">kept</p>`)
}

func TestPlainText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlainText(&buf, testNote()))
	assert.True(t, strings.HasPrefix(buf.String(), "Weekend: plans/ideas\n\nShopping list #home"))
}

func TestPDF(t *testing.T) {
	n := testNote()
	n.PlainTextContent += "\nCafé – naïve"

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, n, testNote()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestShareOf(t *testing.T) {
	s := ShareOf(testNote())
	assert.Equal(t, "Weekend: plans/ideas", s.Subject)
	assert.True(t, strings.HasSuffix(s.Text, "\n\n#home"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"json": FormatJSON, ".md": FormatMarkdown, "Markdown": FormatMarkdown,
		"HTML": FormatHTML, "text": FormatPlainText, "pdf": FormatPDF,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.True(t, core.IsKind(err, core.KindMalformed))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	n := testNote()

	path, err := WriteFile(dir, FormatMarkdown, n)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Weekend_plans_ideas.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Shopping list #home")

	n.Title = "///"
	assert.Equal(t, "n-1.txt", FileName(n, FormatPlainText))
}
