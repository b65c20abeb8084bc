// Package housekeeping provides the single liveness check shared by the
// discovery controller and the interpreter's periodic cleanup (spec.md
// §4.3, §4.4: both prune entries "whose owning process directory no
// longer exists").
package housekeeping

import (
	"os"
	"strconv"
)

// ProcessAlive reports whether /proc/<pid> still exists. A pid of 0 is
// never considered alive (it never identifies a real process in the
// event stream).
func ProcessAlive(pid uint32) bool {
	if pid == 0 {
		return false
	}
	_, err := os.Stat("/proc/" + strconv.FormatUint(uint64(pid), 10))
	return err == nil
}
