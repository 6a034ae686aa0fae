package render

// DefaultPalette colours operation labels.
var DefaultPalette = []string{"#FF6347", "#4682B4", "#32CD32", "#FFD700", "#9370DB", "#FF69B4"}

// DefaultRegionPalette colours region labels. It is darker than
// DefaultPalette so regions stay visible on top of operations.
var DefaultRegionPalette = []string{"#2F4F4F", "#8B4513", "#483D8B", "#008B8B", "#B8860B", "#8B008B"}

// ColorAssignment hands out palette entries to labels in first-seen order,
// cycling when labels outnumber entries. A label keeps its colour for the
// lifetime of the assignment.
type ColorAssignment struct {
	palette []string
	colors  map[string]string
	order   []string
}

// NewColorAssignment returns an assignment over palette. An empty palette
// falls back to DefaultPalette.
func NewColorAssignment(palette []string) *ColorAssignment {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorAssignment{
		palette: palette,
		colors:  make(map[string]string),
	}
}

// Color returns the colour for label, assigning the next entry on first sight.
func (c *ColorAssignment) Color(label string) string {
	if col, ok := c.colors[label]; ok {
		return col
	}
	col := c.palette[len(c.order)%len(c.palette)]
	c.colors[label] = col
	c.order = append(c.order, label)
	return col
}

// Labels returns labels in the order they were first assigned.
func (c *ColorAssignment) Labels() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
