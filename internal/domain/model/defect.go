package model

import "sort"

// Severity levels are ordered 1 (minor) to 5 (critical).
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Defect describes one entry of the defect vocabulary.
type Defect struct {
	ID          DefectID
	Name        string
	Severity    int
	Category    string
	Description string
}

// Catalog is the immutable defect vocabulary.
type Catalog struct {
	byID map[DefectID]Defect
	ids  []DefectID
}

// NewCatalog builds a catalog. Later entries with a repeated id win.
func NewCatalog(defects []Defect) *Catalog {
	c := &Catalog{byID: make(map[DefectID]Defect, len(defects))}
	for _, d := range defects {
		c.byID[d.ID] = d
	}
	c.ids = make([]DefectID, 0, len(c.byID))
	for id := range c.byID {
		c.ids = append(c.ids, id)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c
}

// Get returns the defect with the given id.
func (c *Catalog) Get(id DefectID) (Defect, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// IDs returns all defect ids in ascending order.
func (c *Catalog) IDs() []DefectID {
	out := make([]DefectID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the vocabulary size.
func (c *Catalog) Len() int {
	return len(c.ids)
}
