//go:build !deadlock

// Package syncutil provides the mutex types used for shared driver and
// scheduler state. The default build uses the standard library with zero
// overhead; build with -tags=deadlock to swap in lock-order checking via
// github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex. Build with -tags=deadlock for deadlock detection.
type RWMutex struct {
	sync.RWMutex
}
