package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInsParse(t *testing.T) {
	list, err := BuiltIns()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for _, tmpl := range list {
		assert.NotEmpty(t, tmpl.Name)
		assert.True(t, tmpl.Category.Valid(), tmpl.Name)
		assert.NotEmpty(t, tmpl.Placeholders, tmpl.Name)
		for _, p := range tmpl.Placeholders {
			assert.Contains(t, tmpl.Content, p, tmpl.Name)
		}
	}
}

func TestParseTemplate(t *testing.T) {
	data := []byte("---\nname: Standup\ncategory: nonsense\n---\n\nYesterday {{y}}\nToday {{t}} {{y}}\n")

	tmpl, err := ParseTemplate(data)
	require.NoError(t, err)
	assert.Equal(t, "Standup", tmpl.Name)
	assert.Equal(t, CategoryGeneral, tmpl.Category)
	assert.Equal(t, []string{"{{y}}", "{{t}}"}, tmpl.Placeholders)
	assert.Equal(t, "Yesterday {{y}}\nToday {{t}} {{y}}\n", tmpl.Content)
}

func TestParseTemplateRequiresName(t *testing.T) {
	_, err := ParseTemplate([]byte("---\ncategory: task\n---\nbody"))
	assert.Error(t, err)
}
