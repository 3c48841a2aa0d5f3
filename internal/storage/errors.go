package storage

import "github.com/pkg/errors"

var (
	ErrRunNotFound = errors.New("run not found")
	ErrNoGains     = errors.New("no gains recorded")
	ErrBadTrace    = errors.New("malformed trace file")
)
