package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"plain multiline", "Line one\nLine two", "Line one\nLine two"},
		{"inline tags", "Hello <b>world</b>", "Hello world"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\ntwo"},
		{"line break", "a<br>b", "a\nb"},
		{"list", "<ul><li>a</li><li>b</li></ul>", "a\nb"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"script dropped", "<script>alert(1)</script>safe", "safe"},
		{"style dropped", "<style>p{}</style><p>body</p>", "body"},
		{"less than", "a < b", "a < b"},
		{"bare comparison", "if x<y then swap and continue", "if x<y then swap and continue"},
		{"comparison with entity", "x<y &amp;&amp; y<z", "x<y && y<z"},
		{"unknown tag kept", "<p>a <custom> b</p>", "a <custom> b"},
		{"comment dropped", "a<!-- hidden -->b", "ab"},
		{"blank runs collapse", "<p>a</p>\n\n\n\n<p>b</p>", "a\n\nb"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, StripMarkup(c.in))
		})
	}
}
