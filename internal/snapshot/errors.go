package snapshot

import "errors"

// ErrInvalidSnapshot is wrapped with detail when a .z80 image fails to
// parse or declares a hardware mode this core does not support.
var ErrInvalidSnapshot = errors.New("invalid snapshot")
