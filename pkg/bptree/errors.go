package bptree

import "errors"

// ErrKeyNotFound is returned by Delete when the key does not appear in
// any leaf.
var ErrKeyNotFound = errors.New("bptree: key not found")
