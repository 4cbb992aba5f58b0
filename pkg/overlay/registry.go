package overlay

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Entry is a registered overlay.
type Entry struct {
	ID      string  `json:"id"`
	CellID  string  `json:"cell_id"`
	Label   string  `json:"label,omitempty"`
	Overlay Overlay `json:"overlay"`
}

// Registry tracks overlays by owning cell. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*Entry
	byCell map[string][]string
	seq    []string // insertion order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Entry),
		byCell: make(map[string][]string),
	}
}

// Add registers o on cellID and returns its identifier.
func (r *Registry) Add(cellID string, o Overlay, label string) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &Entry{ID: id, CellID: cellID, Label: label, Overlay: o.WithDefaults()}
	r.byCell[cellID] = append(r.byCell[cellID], id)
	r.seq = append(r.seq, id)
	return id
}

// Remove destroys the overlay with the given id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	r.byCell[e.CellID] = without(r.byCell[e.CellID], id)
	if len(r.byCell[e.CellID]) == 0 {
		delete(r.byCell, e.CellID)
	}
	r.seq = without(r.seq, id)
	return true
}

// RemoveCell destroys every overlay on cellID and returns how many were removed.
func (r *Registry) RemoveCell(cellID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byCell[cellID]
	for _, id := range ids {
		delete(r.byID, id)
		r.seq = without(r.seq, id)
	}
	delete(r.byCell, cellID)
	return len(ids)
}

// ForCell returns the overlays on cellID in insertion order.
func (r *Registry) ForCell(cellID string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.byCell[cellID]))
	for _, id := range r.byCell[cellID] {
		out = append(out, *r.byID[id])
	}
	return out
}

// All returns every overlay in insertion order.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.seq))
	for _, id := range r.seq {
		out = append(out, *r.byID[id])
	}
	return out
}

// Cells returns the ids of cells carrying at least one overlay, sorted.
func (r *Registry) Cells() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cells := make([]string, 0, len(r.byCell))
	for c := range r.byCell {
		cells = append(cells, c)
	}
	sort.Strings(cells)
	return cells
}

// Len returns the number of live overlays.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
