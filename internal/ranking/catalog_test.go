package ranking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	personas := cat.List()
	require.Len(t, personas, 4)

	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ID
		assert.InDelta(t, 1, p.Weights.Sum(), 1e-6, "persona %s", p.ID)
		assert.NotEmpty(t, p.Name)
	}
	assert.Equal(t, []string{"homeowner", "investor", "policymaker", "engineer"}, ids)
}

func TestCatalogGet(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	p, err := cat.Get("investor")
	require.NoError(t, err)
	assert.Equal(t, "investor", p.ID)
	assert.InDelta(t, 0.70, p.Weights.Financial, 1e-12)

	_, err = cat.Get("tenant")
	assert.ErrorIs(t, err, ErrUnknownPersona)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: custom
    name: Custom
    weights:
      energy_efficiency: 0.2
      res_integration: 0.2
      sustainability: 0.2
      user_comfort: 0.2
      financial: 0.2
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	p, err := cat.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom", p.Name)
}

func TestLoadCatalogEmptyPathUsesDefaults(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	_, err = cat.Get("homeowner")
	assert.NoError(t, err)
}

func TestLoadCatalogRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing file",
			yaml:    "", // written nowhere
			wantErr: "read persona catalog",
		},
		{
			name: "weights do not sum to one",
			yaml: `
personas:
  - id: lopsided
    name: Lopsided
    weights:
      energy_efficiency: 0.9
      financial: 0.9
`,
			wantErr: "weights sum",
		},
		{
			name: "duplicate id",
			yaml: `
personas:
  - id: twin
    name: One
    weights: {energy_efficiency: 1.0}
  - id: twin
    name: Two
    weights: {energy_efficiency: 1.0}
`,
			wantErr: "duplicate persona id",
		},
		{
			name:    "empty catalog",
			yaml:    "personas: []",
			wantErr: "catalog is empty",
		},
		{
			name: "empty id",
			yaml: `
personas:
  - name: Anonymous
    weights: {energy_efficiency: 1.0}
`,
			wantErr: "empty id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "personas.yaml")
			if tt.yaml != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			}
			_, err := LoadCatalog(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
