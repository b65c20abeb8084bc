package discovery

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// mountNamespace reads the symlink target of a process's mount namespace,
// e.g. "/proc/1234/ns/mnt" -> "mnt:[4026531840]" (spec.md §4.3 step 2).
func mountNamespace(pid uint32) (string, error) {
	link := "/proc/" + strconv.FormatUint(uint64(pid), 10) + "/ns/mnt"
	target, err := os.Readlink(link)
	if err != nil {
		return "", errors.Wrapf(err, "discovery: read %s", link)
	}
	return target, nil
}

// rootMountKey reads a process's own view of its mount table
// ("/proc/<pid>/mounts") and returns the synthetic key for the line whose
// mount point is "/" (spec.md §4.3 step 3).
func rootMountKey(pid uint32) (string, error) {
	path := "/proc/" + strconv.FormatUint(uint64(pid), 10) + "/mounts"
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "discovery: open %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, " / ") {
			continue
		}
		key, _, ok := keyValFromLine(line)
		if !ok {
			continue
		}
		return key, nil
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(err, "discovery: scan %s", path)
	}
	return "", errors.Errorf("discovery: no root entry in %s", path)
}

// systemMounts reads the host's own mount table ("/proc/mounts") into a
// synthetic-key -> mount-point map (spec.md §4.3 step 4).
func systemMounts() (map[string]string, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, errors.Wrap(err, "discovery: open /proc/mounts")
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, mountPoint, ok := keyValFromLine(scanner.Text())
		if !ok {
			continue
		}
		out[key] = mountPoint
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "discovery: scan /proc/mounts")
	}
	return out, nil
}

// keyValFromLine parses one "/proc/.../mounts" line of the form
// "<device> <mount_point> <type> <opts> 0 0" into a synthetic key of
// "<device>:<type>:<opts>" and the mount point.
func keyValFromLine(line string) (key, mountPoint string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", "", false
	}
	dev, mp, typ, opt := fields[0], fields[1], fields[2], fields[3]
	return dev + ":" + typ + ":" + opt, mp, true
}

// composePath concatenates a resolved mount point and a library path the
// way spec.md §4.3 step 5 requires: verbatim if the mount point is "/",
// otherwise a straight concatenation (the library path already carries
// its own leading slash).
func composePath(mountPoint, libPath string) string {
	if mountPoint == "/" {
		return libPath
	}
	return mountPoint + libPath
}
