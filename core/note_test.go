package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("This is a note about #android development and #kotlin programming")
	assert.Equal(t, []string{"android", "kotlin"}, tags)
}

func TestExtractHashtagsLowercasesAndDeduplicates(t *testing.T) {
	tags := ExtractHashtags("#Go #go #GO and #rust_lang")
	assert.Equal(t, []string{"go", "rust_lang"}, tags)
}

func TestExtractHashtagsNone(t *testing.T) {
	tags := ExtractHashtags("nothing to see # here")
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestExtractHashtagsSkipsCharacterReferences(t *testing.T) {
	assert.Equal(t, []string{}, ExtractHashtags("It&#39;s done"))
	assert.Equal(t, []string{"ok", "next"}, ExtractHashtags("It&#39;s #ok&#x27; #next"))
}

func TestAutoTitle(t *testing.T) {
	assert.Equal(t, "Line one", AutoTitle("Line one\nLine two"))
	assert.Equal(t, "padded", AutoTitle("   padded   \nrest"))
	assert.Equal(t, untitled, AutoTitle(""))
	assert.Equal(t, untitled, AutoTitle("   \nsecond line"))

	long := strings.Repeat("a", 80)
	assert.Equal(t, strings.Repeat("a", 50), AutoTitle(long))
}

func TestAutoTitleCountsRunes(t *testing.T) {
	title := AutoTitle(strings.Repeat("é", 60))
	assert.Equal(t, 50, len([]rune(title)))
}

func TestDeriveKeepsBareComparisons(t *testing.T) {
	d := Derive("if x<y then swap #sort")
	assert.Equal(t, "if x<y then swap #sort", d.PlainText)
	assert.Equal(t, []string{"sort"}, d.Tags)
}

func TestDerive(t *testing.T) {
	d := Derive("<p>Shopping #List</p><p>milk &amp; eggs</p>")
	assert.Equal(t, "Shopping #List\nmilk & eggs", d.PlainText)
	assert.Equal(t, []string{"list"}, d.Tags)
}
