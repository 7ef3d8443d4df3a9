package scene

import "github.com/pkg/errors"

var (
	// ErrObjectNotFound is returned when no object has the requested name.
	ErrObjectNotFound = errors.New("object not found")
	// ErrNotAMesh is returned when an operation needs a mesh object and gets something else.
	ErrNotAMesh = errors.New("object is not a mesh")
)

// NewObjectNotFoundError wraps ErrObjectNotFound with the missing name.
func NewObjectNotFoundError(name string) error {
	return errors.Wrapf(ErrObjectNotFound, "%q", name)
}

// NewNotAMeshError wraps ErrNotAMesh with the object name and its actual kind.
func NewNotAMeshError(name string, kind Kind) error {
	return errors.Wrapf(ErrNotAMesh, "%q is a %s", name, kind)
}
