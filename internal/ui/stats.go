package ui

import "sync/atomic"

// Stats counts jobs handled by a long-running frontend.
type Stats struct {
	Jobs      atomic.Int64
	Succeeded atomic.Int64
	Pages     atomic.Int64
	Bytes     atomic.Int64
}
