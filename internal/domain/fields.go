package domain

// Placeholder is used for a field whose tag the model did not emit.
const Placeholder = "[A preencher]"

// FieldMap maps tag names to the text that followed them in a model response.
// Insertion order is kept so rendering is deterministic.
type FieldMap struct {
	keys   []string
	values map[string]string
}

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() FieldMap {
	return FieldMap{values: make(map[string]string)}
}

// Set stores value under tag, keeping the first insertion position.
func (m *FieldMap) Set(tag, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[tag]; !ok {
		m.keys = append(m.keys, tag)
	}
	m.values[tag] = value
}

// Get returns the value for tag, or Placeholder when it is unknown.
func (m FieldMap) Get(tag string) string {
	if v, ok := m.values[tag]; ok {
		return v
	}
	return Placeholder
}

// Keys returns tags in insertion order.
func (m FieldMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of tags.
func (m FieldMap) Len() int {
	return len(m.keys)
}

// Placeholders lists the tags that were substituted with Placeholder.
func (m FieldMap) Placeholders() []string {
	var out []string
	for _, k := range m.keys {
		if m.values[k] == Placeholder {
			out = append(out, k)
		}
	}
	return out
}

// AsMap returns a copy of the mapping, used for JSON responses.
func (m FieldMap) AsMap() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
