package graphics

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID returns the numeric ID of the calling goroutine. The core
// has no analogue for this in the teacher repository — wgpu-core's
// design is deliberately multi-threaded and locks its way to safety —
// but spec §5 requires a hard single-thread-per-device assertion with no
// locking at all, so each DeviceResource and DeviceEncapsulator needs a
// way to recognize "the thread that created me." Go exposes no public
// goroutine-identity API; parsing the header line of runtime.Stack's
// output is the standard workaround used when an explicit owner token
// cannot be threaded through every call site.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0
	}
	line = line[len(prefix):]
	if i := bytes.IndexByte(line, ' '); i >= 0 {
		line = line[:i]
	}
	id, err := strconv.ParseUint(string(line), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
