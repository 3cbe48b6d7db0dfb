package nbt

import "fmt"

// TruncatedError means the cursor ran past the end of the buffer while
// reading or skipping a tag — the data is shorter than its own structure
// claims.
type TruncatedError struct {
	Wanted int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("nbt: truncated data (wanted %d more bytes, have %d)", e.Wanted, e.Have)
}

// UnknownTagIDError means a tag-id byte didn't match one of the 13 known
// kinds. Id 0 is only valid as a compound terminator; seeing it as a tag
// header (outside that context) is also reported this way by callers that
// don't expect TagEnd.
type UnknownTagIDError struct {
	ID byte
}

func (e *UnknownTagIDError) Error() string {
	return fmt.Sprintf("nbt: unknown tag id %d", e.ID)
}

// NegativeLengthError means a length-prefixed field (byte/int/long array, or
// list) declared a negative count. String lengths are unsigned and never
// produce it.
type NegativeLengthError struct {
	Kind string
	N    int32
}

func (e *NegativeLengthError) Error() string {
	return fmt.Sprintf("nbt: negative %s length: %d", e.Kind, e.N)
}

// SchemaError means read_full or read_path found a value of the wrong
// shape where a specific one was expected (e.g. a root tag that isn't a
// compound).
type SchemaError struct {
	Path     string
	Expected string
	Found    byte
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("nbt: schema mismatch at %q: expected %s, found tag id %d", e.Path, e.Expected, e.Found)
}
