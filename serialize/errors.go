package serialize

import "fmt"

// SerializerError reports a structural failure in the binary scene
// format: wrong magic, unknown section tag, short read, unknown class
// or property, an object index out of range, or an atom type-id
// mismatch (spec §7.iv). Deserialize discards all partial state before
// returning one.
type SerializerError struct {
	Reason string
}

func (e *SerializerError) Error() string { return fmt.Sprintf("serialize: %s", e.Reason) }

func shortRead(what string) error { return &SerializerError{Reason: "short read: " + what} }

// noIndex marks an #OBH field as absent (no class, no name, no body).
const noIndex uint32 = 0xFFFFFFFF
