package dispatch

import (
	"bytes"
	"runtime"
	"strconv"
)

// goid returns the current goroutine id by parsing the stack header
// ("goroutine N [running]:"). Only used to enforce the
// never-on-the-producer-goroutine contract; never used for scheduling.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// CurrentGoroutine exposes the calling goroutine's id so collaborators
// can pin the producer goroutine at construction time.
func CurrentGoroutine() uint64 {
	return goid()
}
