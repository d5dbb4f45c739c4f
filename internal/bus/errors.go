package bus

import "errors"

// ErrLoad is returned (wrapped) when a ROM or RAM image is the wrong size.
var ErrLoad = errors.New("load error")
