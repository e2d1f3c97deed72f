package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("no markers", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers", out)

	out, err = RenderTemplate(`Customer: {{.ID}} <{{upper .Name}}> {{join ", " .Tags}}`, map[string]any{
		"ID":   "C001",
		"Name": "john",
		"Tags": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Customer: C001 <JOHN> a, b", out)
}

func TestParseTemplate_Error(t *testing.T) {
	_, err := ParseTemplate("bad", "{{.Unclosed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse template "bad"`)

	assert.Panics(t, func() { MustParseTemplate("bad", "{{") })
}
