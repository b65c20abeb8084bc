// Package kernelcheck gates agent startup on kernel support for the
// facilities the probe layer needs: kprobes/uprobes, per-CPU maps, a ring
// buffer, and bpf_probe_read_user_str (spec.md §6). The Go-idiomatic
// analogue of the original Rust agent's `uname()` crate call in
// src/main.rs is golang.org/x/sys/unix.Uname; version comparison uses
// hashicorp/go-version, already a direct dependency of the teacher.
package kernelcheck

import (
	"bytes"
	"fmt"

	ver "github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"
)

// Floor is the oldest kernel release the probe layer supports: 5.5
// introduced bpf_probe_read_user_str, which do_sys_openat2 tracing relies
// on (spec.md §6).
var Floor = ver.Must(ver.NewVersion("5.5.0"))

// Release returns the running kernel's release string, e.g. "6.8.0-generic".
func Release() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("kernelcheck: uname: %w", err)
	}
	return cstr(uts.Release[:]), nil
}

// Check parses the running kernel's release and returns an error if it is
// older than Floor. Only the leading dotted-numeric prefix of the release
// is significant (a trailing "-generic" or similar is ignored).
func Check() error {
	release, err := Release()
	if err != nil {
		return err
	}
	return CheckRelease(release)
}

// CheckRelease is the pure, testable half of Check.
func CheckRelease(release string) error {
	numeric := leadingVersion(release)
	if numeric == "" {
		return fmt.Errorf("kernelcheck: could not parse kernel version from %q", release)
	}

	v, err := ver.NewVersion(numeric)
	if err != nil {
		return fmt.Errorf("kernelcheck: parse %q: %w", numeric, err)
	}

	if v.LessThan(Floor) {
		return fmt.Errorf("kernelcheck: kernel %s is older than the required floor %s", v, Floor)
	}
	return nil
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// leadingVersion extracts the dotted-numeric prefix of a kernel release
// string, e.g. "5.15.0-91-generic" -> "5.15.0".
func leadingVersion(release string) string {
	end := 0
	dots := 0
	for i := 0; i < len(release); i++ {
		c := release[i]
		switch {
		case c >= '0' && c <= '9':
			end = i + 1
		case c == '.' && dots < 2:
			dots++
			end = i + 1
		default:
			return release[:end]
		}
	}
	return release[:end]
}
