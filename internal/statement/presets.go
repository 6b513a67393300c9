package statement

import (
	"fmt"
	"strings"
)

// AutoLayout is the name of the detected layout.
const AutoLayout = "auto"

// Registry holds named layouts in registration order.
type Registry struct {
	layouts map[string]Layout
	order   []string
}

// NewRegistry creates an empty layout registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]Layout)}
}

// Register adds a layout. Names are case-insensitive.
func (r *Registry) Register(l Layout) error {
	key := strings.ToLower(l.Name)
	if key == "" || key == AutoLayout {
		return fmt.Errorf("layout name %q is reserved", l.Name)
	}
	if _, ok := r.layouts[key]; ok {
		return fmt.Errorf("duplicate layout %q", l.Name)
	}
	if err := l.Validate(); err != nil {
		return err
	}
	r.layouts[key] = l
	r.order = append(r.order, key)
	return nil
}

// Get returns the layout registered under name.
func (r *Registry) Get(name string) (Layout, bool) {
	l, ok := r.layouts[strings.ToLower(name)]
	return l, ok
}

// Layouts returns every registered layout in registration order.
func (r *Registry) Layouts() []Layout {
	out := make([]Layout, len(r.order))
	for i, k := range r.order {
		out[i] = r.layouts[k]
	}
	return out
}

// DefaultRegistry returns a registry with the built-in presets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range []Layout{
		{Name: "nubank", Delimiter: ',', DateColumn: 0, DescriptionColumns: []int{1}, ValueColumn: 2},
		{Name: "semicolon", Delimiter: ';', DateColumn: 0, DescriptionColumns: []int{1}, ValueColumn: 2},
		{Name: "semicolon-document", Delimiter: ';', DateColumn: 0, DescriptionColumns: []int{1}, ValueColumn: 3},
		{Name: "tab", Delimiter: '\t', DateColumn: 0, DescriptionColumns: []int{1}, ValueColumn: 2},
		{Name: "pipe", Delimiter: '|', DateColumn: 0, DescriptionColumns: []int{1}, ValueColumn: 2},
	} {
		if err := r.Register(l); err != nil {
			panic(err)
		}
	}
	return r
}
