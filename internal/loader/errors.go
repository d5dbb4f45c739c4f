package loader

import "errors"

// ErrUnknownFormat is wrapped with the rejected path/extension when a file
// extension does not match any tape or snapshot format this loader knows.
var ErrUnknownFormat = errors.New("unknown file format")
