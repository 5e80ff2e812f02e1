package pebble

import "errors"

const (
	ErrInIteratorCreation = "pebble: create iterator: %w"
	ErrIteratorValue      = "pebble: read iterator value: %w"
)

var ErrIteratorInvalid = errors.New("pebble: iterator is not positioned on a valid entry")
