package filter

import "github.com/pkg/errors"

// ErrInvalidConfiguration is returned by constructors given an unusable
// size, window, range or time constant.
var ErrInvalidConfiguration = errors.New("filter: invalid configuration")

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}
