package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/ikasoba/notebox/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Content is either markdown or HTML from the rich editor, so raw HTML is
// passed through.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<article>
<h1>%s</h1>
%s</article>
</body>
</html>
`

// HTML writes a standalone page for the note.
func HTML(w io.Writer, n *core.Note) error {
	var body bytes.Buffer
	if err := mdRenderer.Convert([]byte(n.Content), &body); err != nil {
		return err
	}

	title := html.EscapeString(n.Title)

	_, err := fmt.Fprintf(w, htmlPage, title, title, body.String())

	return err
}
