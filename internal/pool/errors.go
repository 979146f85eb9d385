package pool

import "errors"

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("pool: closed")
