// Package discovery translates per-process open() events into real
// host-visible library paths and triggers user-space probe attachment the
// first time a given real path is seen. Grounded on
// original_source/src/open_listener.rs, whose three-map design
// (mount-namespace-by-pid, root-by-namespace, system-mounts) it mirrors.
package discovery

import (
	"os"

	"github.com/Metrist-Software/ebpf-agent/internal/housekeeping"
	"github.com/Metrist-Software/ebpf-agent/internal/printer"
)

// OpenEvent is the subset of a probe.Event the discovery controller acts
// on: a candidate TLS library path and the pid/tgid that opened it.
type OpenEvent struct {
	Path string
	PID  uint32
	TGID uint32
}

// Attacher attaches the user-space probe set to a real library file. It
// is satisfied by *probe.Loader; kept as an interface here so the
// controller has no compile-time dependency on cilium/ebpf.
type Attacher interface {
	AttachLibrary(path string) error
}

// Controller implements the discovery state machine and cleanup of
// spec.md §4.3. It is single-owner: every exported method is meant to be
// called from one goroutine, so no internal locking is required.
type Controller struct {
	attacher Attacher
	selfPID  uint32

	mountNSByPID     map[uint32]string
	rootByNS         map[string]string
	systemMountCache map[string]string
	monitoredLibs    map[string]struct{}
}

// NewController builds a discovery controller that attaches newly found
// libraries through attacher. selfPID is the monitoring process's own pid,
// used to self-filter its own open() calls (spec.md §4.3 step 1).
func NewController(attacher Attacher, selfPID int) *Controller {
	return &Controller{
		attacher:         attacher,
		selfPID:          uint32(selfPID),
		mountNSByPID:     make(map[uint32]string),
		rootByNS:         make(map[string]string),
		systemMountCache: make(map[string]string),
		monitoredLibs:    make(map[string]struct{}),
	}
}

// HandleOpenEvent runs the six-step resolution pipeline of spec.md §4.3
// on a single OpenAt event. Every failure drops the event (only a failed
// re-read of the host mount table is logged); the next open for the same
// pid/library retries from scratch.
func (c *Controller) HandleOpenEvent(ev OpenEvent) {
	if ev.TGID == c.selfPID {
		return
	}

	ns, ok := c.namespaceFor(ev.PID)
	if !ok {
		return
	}

	rootKey, ok := c.rootKeyFor(ev.PID, ns)
	if !ok {
		return
	}

	mountPoint, ok := c.mountPointFor(rootKey)
	if !ok {
		return
	}

	realPath := composePath(mountPoint, ev.Path)
	c.admit(realPath)
}

func (c *Controller) namespaceFor(pid uint32) (string, bool) {
	if ns, ok := c.mountNSByPID[pid]; ok {
		return ns, true
	}
	ns, err := mountNamespace(pid)
	if err != nil {
		return "", false
	}
	c.mountNSByPID[pid] = ns
	return ns, true
}

func (c *Controller) rootKeyFor(pid uint32, ns string) (string, bool) {
	if key, ok := c.rootByNS[ns]; ok {
		return key, true
	}
	key, err := rootMountKey(pid)
	if err != nil {
		return "", false
	}
	c.rootByNS[ns] = key
	return key, true
}

func (c *Controller) mountPointFor(rootKey string) (string, bool) {
	if mp, ok := c.systemMountCache[rootKey]; ok {
		return mp, true
	}
	// Not found: refresh the whole cache once and retry (spec.md §4.3
	// step 4), matching the reference agent's unconditional re-read.
	mounts, err := systemMounts()
	if err != nil {
		printer.Errorf("discovery: refresh system mounts: %v", err)
		return "", false
	}
	c.systemMountCache = mounts
	mp, ok := c.systemMountCache[rootKey]
	return mp, ok
}

// admit inserts realPath into the monitored set and attaches the probe
// set exactly once per real path (spec.md §4.3 step 6, §8 idempotence
// invariant).
func (c *Controller) admit(realPath string) {
	if _, already := c.monitoredLibs[realPath]; already {
		return
	}
	c.monitoredLibs[realPath] = struct{}{}

	printer.Infof("discovery: attaching to %s", realPath)
	if err := c.attacher.AttachLibrary(realPath); err != nil {
		printer.Warningf("discovery: attach %s: %v", realPath, err)
	}
}

// Cleanup drops pid entries whose /proc directory no longer exists and
// namespace entries no longer referenced by any live pid. The monitored
// library set is never pruned (spec.md §4.3 cleanup, §9 design notes).
func (c *Controller) Cleanup() {
	removedPIDs := 0
	for pid := range c.mountNSByPID {
		if !housekeeping.ProcessAlive(pid) {
			delete(c.mountNSByPID, pid)
			removedPIDs++
		}
	}

	usedNS := make(map[string]struct{}, len(c.mountNSByPID))
	for _, ns := range c.mountNSByPID {
		usedNS[ns] = struct{}{}
	}
	removedNS := 0
	for ns := range c.rootByNS {
		if _, used := usedNS[ns]; !used {
			delete(c.rootByNS, ns)
			removedNS++
		}
	}

	printer.Debugf("discovery: cleanup removed %d pids, %d namespaces; %d pids, %d namespaces, %d libraries remain",
		removedPIDs, removedNS, len(c.mountNSByPID), len(c.rootByNS), len(c.monitoredLibs))
}

// SelfPID returns the current process's pid, the value main.go passes to
// NewController as selfPID.
func SelfPID() int {
	return os.Getpid()
}
