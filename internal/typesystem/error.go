package typesystem

import "fmt"

// SymbolNotFoundError indicates a type name that is neither a primitive,
// a class nor a type variable.
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Name)
}

func NewSymbolNotFoundError(name string) *SymbolNotFoundError {
	return &SymbolNotFoundError{Name: name}
}

// UnsupportedAnnotationError indicates valid typing syntax outside the
// supported subset (e.g. a Union that is not Optional).
type UnsupportedAnnotationError struct {
	Text   string
	Reason string
}

func (e *UnsupportedAnnotationError) Error() string {
	return fmt.Sprintf("unsupported annotation %q: %s", e.Text, e.Reason)
}
