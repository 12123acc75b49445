package core

import "fmt"

// ReferenceError reports a scene element that names an identifier which does
// not exist. It is the only scene error that aborts a render.
type ReferenceError struct {
	Kind  string // "spectrum", "mesh" or "material"
	ID    string // The unknown identifier
	Owner string // Element holding the reference, e.g. "entity 3" or "material glass"
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s references unknown %s %q", e.Owner, e.Kind, e.ID)
}
