package core

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	htmlTag    = regexp.MustCompile(`<(?:/?[A-Za-z][\w-]*(?:\s[^<>]*)?/?|!--)>?`)
)

// StripMarkup returns the text of content with all HTML markup removed.
// Block-level elements and <br> become line breaks; script and style bodies
// are dropped. Content without a known tag is only entity-decoded, so a bare
// "x<y" stays text. Unknown tags are kept as written.
func StripMarkup(content string) string {
	if !hasKnownTag(content) {
		return strings.TrimSpace(html.UnescapeString(content))
	}

	var b strings.Builder

	skip := 0
	z := html.NewTokenizer(strings.NewReader(content))

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(blankLines.ReplaceAllString(b.String(), "\n\n"))

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == 0 {
				if skip == 0 {
					b.Write(z.Raw())
				}
				continue
			}
			if a == atom.Script || a == atom.Style {
				skip++
			}
			if isBreak(a) {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == 0 {
				if skip == 0 {
					b.Write(z.Raw())
				}
				continue
			}
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			if isBlock(a) {
				b.WriteByte('\n')
			}
		}
	}
}

func isBreak(a atom.Atom) bool {
	return a == atom.Br || a == atom.Li || a == atom.Hr
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Tr, atom.Table:
		return true
	}
	return false
}

func hasKnownTag(content string) bool {
	for _, m := range htmlTag.FindAllString(content, -1) {
		if strings.HasPrefix(m, "<!--") {
			return true
		}
		if !strings.HasSuffix(m, ">") {
			continue
		}
		name := strings.TrimPrefix(m[1:], "/")
		if i := strings.IndexFunc(name, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '/' || r == '>' }); i >= 0 {
			name = name[:i]
		}
		if atom.Lookup([]byte(strings.ToLower(name))) != 0 {
			return true
		}
	}
	return false
}
