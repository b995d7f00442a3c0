// Package display pins widgets to the goroutine that created them.
//
// Widgets are single threaded: every call must come from the owning
// goroutine. Go has no thread handles, so ownership is keyed on the
// goroutine ID read from the runtime's stack header.
package display

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
)

// ErrThreadAffinity is returned when a widget is used off its owning
// goroutine.
var ErrThreadAffinity = errors.New("invalid thread access")

// Thread records the owning goroutine.
type Thread struct {
	owner uint64
}

// Current returns a Thread owned by the calling goroutine.
func Current() *Thread {
	return &Thread{owner: goroutineID()}
}

// Check fails with ErrThreadAffinity unless called from the owner. A nil
// Thread accepts every caller.
func (t *Thread) Check() error {
	if t == nil {
		return nil
	}
	if id := goroutineID(); id != t.owner {
		return fmt.Errorf("goroutine %d, owner %d: %w", id, t.owner, ErrThreadAffinity)
	}
	return nil
}

// Owner returns the owning goroutine ID.
func (t *Thread) Owner() uint64 { return t.owner }

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses "goroutine N [running]:" from the current stack.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
