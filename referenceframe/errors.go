package referenceframe

import "github.com/pkg/errors"

var (
	// ErrNoModelInformation is returned when a robot description carries no data.
	ErrNoModelInformation = errors.New("no model information")
	// ErrLinkNotFound is returned when a link name is absent from a set of poses.
	ErrLinkNotFound = errors.New("link not found")
	// ErrNoPoses is returned when a query needs at least one link pose.
	ErrNoPoses = errors.New("no link poses")
)

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

// NewFrameNotInListOfTransformsError returns an error indicating that a link referenced by a joint was never declared.
func NewFrameNotInListOfTransformsError(linkName string) error {
	return errors.Errorf("link %q is referenced by a joint but not declared", linkName)
}

// NewIncorrectInputLengthError returns an error indicating the length of an xyz/rpy attribute is wrong.
func NewIncorrectInputLengthError(attr string, actual int) error {
	return errors.Errorf("attribute %q has %d values, expected 3", attr, actual)
}

// NewOutOfLimitsError returns an error indicating a joint value lies outside the joint's limits.
func NewOutOfLimitsError(joint string, value, lower, upper float64) error {
	return errors.Errorf("joint %q value %v is outside its limits [%v, %v]", joint, value, lower, upper)
}

// NewLinkNotFoundError wraps ErrLinkNotFound with the missing name.
func NewLinkNotFoundError(name string) error {
	return errors.Wrapf(ErrLinkNotFound, "%q", name)
}
