package catalog

import (
	"sync"
	"time"

	"github.com/verdantlabs/leafsight/internal/domain"
)

// Disease is one catalog entry: the disease itself plus the guidance
// served alongside a detection.
type Disease struct {
	Name           string          `yaml:"name" json:"name"`
	ScientificName string          `yaml:"scientificName" json:"scientificName"`
	Severity       domain.Severity `yaml:"severity" json:"severity"`
	Description    string          `yaml:"description" json:"description"`
	Treatments     []string        `yaml:"treatments" json:"treatments"`
	PreventionTips []string        `yaml:"preventionTips" json:"preventionTips"`
}

// Catalog provides in-memory storage and lookup for disease entries.
// It is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	diseases   map[string]*Disease // Name -> Disease
	lastReload time.Time
}

// New creates a catalog pre-populated with the given entries.
func New(diseases []*Disease) *Catalog {
	c := &Catalog{diseases: make(map[string]*Disease, len(diseases))}
	for _, d := range diseases {
		c.diseases[d.Name] = d
	}
	return c
}

// Get retrieves a disease by name.
func (c *Catalog) Get(name string) (*Disease, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.diseases[name]
	return d, ok
}

// All returns all diseases currently in the catalog.
func (c *Catalog) All() []*Disease {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Disease, 0, len(c.diseases))
	for _, d := range c.diseases {
		out = append(out, d)
	}
	return out
}

// Upsert adds or replaces a single disease entry.
func (c *Catalog) Upsert(d *Disease) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diseases[d.Name] = d
}

// Replace swaps the whole catalog content, e.g. after a file reload.
func (c *Catalog) Replace(diseases []*Disease) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diseases = make(map[string]*Disease, len(diseases))
	for _, d := range diseases {
		c.diseases[d.Name] = d
	}
	c.lastReload = time.Now()
}

// Len returns the number of diseases in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.diseases)
}
