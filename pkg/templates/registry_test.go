package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
)

func TestRegistryFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"greet/hello.tmpl": {Data: []byte("Halo {{.Name}}, IR {{num .IR 1}}\n\n  kedua  \n")},
		"notes.txt":        {Data: []byte("ignored")},
	}

	reg, err := NewRegistryFromFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"greet/hello"}, reg.List())

	out, err := reg.Render("greet/hello", map[string]any{"Name": "Ani", "IR": 1234.56})
	require.NoError(t, err)
	assert.Contains(t, out, "Halo Ani, IR 1,234.6")

	tmpl, err := reg.GetTemplate("greet/hello")
	require.NoError(t, err)
	lines, err := tmpl.RenderLines(map[string]any{"Name": "Ani", "IR": 0.0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Halo Ani, IR 0.0", "kedua"}, lines)

	_, err = reg.GetTemplate("greet/missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistryParseError(t *testing.T) {
	_, err := NewRegistryFromFS(fstest.MapFS{"bad.tmpl": {Data: []byte("{{.Name")}})
	assert.Error(t, err)
}

func TestEmbeddedRegistry(t *testing.T) {
	reg := Get()

	for _, id := range []string{
		"recommendations/rainfall_high",
		"recommendations/rainfall_normal",
		"recommendations/density_high",
		"recommendations/density_normal",
		"recommendations/sanitation_low",
		"recommendations/waste_high",
		"recommendations/tier_high",
		"recommendations/tier_medium",
		"recommendations/tier_low",
		"telegram/help",
		"telegram/regions",
		"telegram/assessment",
		"telegram/not_found",
	} {
		_, err := reg.GetTemplate(id)
		assert.NoError(t, err, id)
	}

	lines, err := reg.templates["recommendations/rainfall_high"].RenderLines(map[string]float64{"Value": 2450, "Threshold": 2000})
	require.NoError(t, err)
	assert.Equal(t, "Curah hujan 2,450 mm melewati ambang 2,000 mm.", lines[0])
}
