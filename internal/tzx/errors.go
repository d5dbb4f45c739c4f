package tzx

import "errors"

// ErrUnsupportedBlock is wrapped with the offending block ID when Parse
// meets a TZX block this player cannot interpret.
var ErrUnsupportedBlock = errors.New("unsupported TZX block")
