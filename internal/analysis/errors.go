package analysis

import "github.com/pkg/errors"

var ErrTooShort = errors.New("signal too short")
