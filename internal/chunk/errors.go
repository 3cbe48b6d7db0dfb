package chunk

import "fmt"

// ParseError means a chunk's NBT bytes could not be read as a tree, or the
// tree's root was not a compound. A missing "sections" list yields an empty
// Chunk and a malformed section is omitted; neither is a ParseError.
type ParseError struct {
	CX, CZ int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chunk: (%d, %d): %s", e.CX, e.CZ, e.Reason)
}
