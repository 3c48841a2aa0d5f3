package control

import "github.com/pkg/errors"

var (
	// ErrNilController is returned when a composite is given a nil child.
	ErrNilController = errors.New("control: nil controller")

	// ErrInvalidConfiguration is returned for unusable constructor arguments.
	ErrInvalidConfiguration = errors.New("control: invalid configuration")
)
