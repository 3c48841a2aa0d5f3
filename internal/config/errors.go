package config

import "github.com/pkg/errors"

var (
	// ErrInvalid indicates a configuration that cannot be run.
	ErrInvalid = errors.New("config: invalid")

	// ErrUnknownType indicates a filter, controller or setpoint type with
	// no builder.
	ErrUnknownType = errors.New("config: unknown type")
)
