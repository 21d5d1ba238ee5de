package event

// Marker is the traversal cursor: a forward-only iterator over the
// handlers an event still has to visit. It never rewinds; restarting a
// traversal means building a new marker.
type Marker struct {
	targets []Target
	pos     int
}

// NewMarker builds a cursor over targets in traversal order.
func NewMarker(targets []Target) *Marker {
	return &Marker{targets: targets}
}

// Next yields the next target, or false when the traversal is exhausted.
func (m *Marker) Next() (Target, bool) {
	if m == nil || m.pos >= len(m.targets) {
		return nil, false
	}
	t := m.targets[m.pos]
	m.pos++
	return t, true
}

// Remaining reports how many targets the cursor has not yet yielded.
func (m *Marker) Remaining() int {
	if m == nil {
		return 0
	}
	return len(m.targets) - m.pos
}
