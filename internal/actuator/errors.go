package actuator

import "github.com/pkg/errors"

var (
	ErrInvalidSignal = errors.New("invalid signal layout")
	ErrWrongFrame    = errors.New("frame does not match encoder")
)
