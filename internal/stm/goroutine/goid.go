package goroutine

import (
	"bytes"
	"runtime"
)

const stackPrefix = "goroutine "

// CurrentID returns the ID of the calling goroutine.
//
// It parses the header line of runtime.Stack ("goroutine 123 [running]:").
// This costs around a microsecond, paid once per transaction.
func CurrentID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the ID from a "goroutine N [...]" header.
// It returns 0 if buf does not start with one.
func parseGID(buf []byte) int64 {
	if !bytes.HasPrefix(buf, []byte(stackPrefix)) {
		return 0
	}
	var gid int64
	for _, c := range buf[len(stackPrefix):] {
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}

// liveIDs returns the IDs of all goroutines currently alive.
func liveIDs() []int64 {
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return parseAllGIDs(buf[:n])
		}
		// Truncated dump: a missing ID would look dead, so grow and retry.
		buf = make([]byte, 2*len(buf))
	}
}

// parseAllGIDs extracts every header ID from a runtime.Stack(all=true) dump.
func parseAllGIDs(buf []byte) []int64 {
	var gids []int64
	for len(buf) > 0 {
		line := buf
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			buf = nil
		}
		if gid := parseGID(line); gid != 0 {
			gids = append(gids, gid)
		}
	}
	return gids
}
