package ranking

import (
	_ "embed"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/renolab/renoplan/internal/model"
)

//go:embed personas.yaml
var defaultPersonas []byte

// Catalog is a static persona lookup table.
type Catalog struct {
	entries map[string]model.Persona
	order   []string
}

// DefaultCatalog loads the personas shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultPersonas)
}

// LoadCatalog reads a persona catalog from a YAML file. An empty path falls
// back to the embedded defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ranking: read persona catalog %s", path)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Personas []model.Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ranking: parse persona catalog")
	}
	if len(doc.Personas) == 0 {
		return nil, eris.New("ranking: persona catalog is empty")
	}

	c := &Catalog{entries: make(map[string]model.Persona, len(doc.Personas))}
	for _, p := range doc.Personas {
		if p.ID == "" {
			return nil, eris.New("ranking: persona with empty id")
		}
		if _, dup := c.entries[p.ID]; dup {
			return nil, eris.Errorf("ranking: duplicate persona id %q", p.ID)
		}
		if sum := p.Weights.Sum(); math.Abs(sum-1) > 1e-6 {
			return nil, eris.Errorf("ranking: persona %q weights sum to %v, want 1", p.ID, sum)
		}
		c.entries[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Get looks up a persona by id.
func (c *Catalog) Get(id string) (model.Persona, error) {
	p, ok := c.entries[id]
	if !ok {
		return model.Persona{}, eris.Wrapf(ErrUnknownPersona, "persona %q", id)
	}
	return p, nil
}

// List returns all personas in catalog order.
func (c *Catalog) List() []model.Persona {
	out := make([]model.Persona, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}
