package nbt

// ReadFull is a convenience wrapper around NewReader(buf).ReadFull for
// one-shot callers (level.dat metadata, tests) that don't need to reuse the
// reader's name-interning cache across calls.
func ReadFull(buf []byte) (*Tag, error) {
	return NewReader(buf).ReadFull()
}

// ReadPath is the one-shot equivalent of NewReader(buf).ReadPath.
func ReadPath(buf []byte, path []string) (*Tag, error) {
	return NewReader(buf).ReadPath(path)
}

// RootCompound extracts the root's Compound value from a parsed root tag,
// failing if the root wasn't a compound (it always is, per ReadFull,
// but callers that received a *Tag from elsewhere may want the check).
func RootCompound(root *Tag) (Compound, error) {
	if root.Type != TagCompound {
		return nil, &SchemaError{Path: "<root>", Expected: "compound", Found: root.Type}
	}
	c, ok := root.Value.(Compound)
	if !ok {
		return nil, &SchemaError{Path: "<root>", Expected: "compound", Found: root.Type}
	}
	return c, nil
}
