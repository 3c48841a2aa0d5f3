package autotune

import "github.com/pkg/errors"

var (
	// ErrInvalidConfiguration is returned for unusable constructor arguments.
	ErrInvalidConfiguration = errors.New("autotune: invalid configuration")

	// ErrUnknownRule is returned by RuleByName.
	ErrUnknownRule = errors.New("autotune: unknown tuning rule")
)
