package storage

import "errors"

// ErrMalformedInput is returned (wrapped) by loaders when a source row
// cannot be parsed into a Record.
var ErrMalformedInput = errors.New("storage: malformed input")
