package mesh

// LayerKey addresses a per-vertex float layer. Keys are stable for the
// lifetime of the mesh, so external serializers can look a layer up by name
// once and keep the key.
type LayerKey int

type layer struct {
	name string
	data []float64
}

// AddVertLayer returns the key of the named layer, creating it zero-filled
// if it does not exist yet.
func (m *Mesh) AddVertLayer(name string) LayerKey {
	if k, ok := m.VertLayer(name); ok {
		return k
	}
	m.layers = append(m.layers, layer{name: name, data: make([]float64, len(m.verts))})
	return LayerKey(len(m.layers) - 1)
}

// VertLayer looks up a layer by name.
func (m *Mesh) VertLayer(name string) (LayerKey, bool) {
	for i := range m.layers {
		if m.layers[i].name == name {
			return LayerKey(i), true
		}
	}
	return -1, false
}

// LayerNames lists the per-vertex layers in creation order.
func (m *Mesh) LayerNames() []string {
	names := make([]string, len(m.layers))
	for i := range m.layers {
		names[i] = m.layers[i].name
	}
	return names
}

// VertFloat reads layer k at v.
func (m *Mesh) VertFloat(k LayerKey, v VertID) float64 {
	return m.layers[k].data[v]
}

// SetVertFloat writes layer k at v.
func (m *Mesh) SetVertFloat(k LayerKey, v VertID, x float64) {
	m.layers[k].data[v] = x
}
