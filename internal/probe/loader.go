package probe

import (
	"context"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"github.com/pkg/errors"

	"github.com/Metrist-Software/ebpf-agent/internal/printer"
)

// Loader loads the compiled tlsmon program once at startup, attaches the
// always-on kretprobe, and attaches uprobes on individual TLS libraries on
// demand as internal/discovery finds them. Grounded on
// ebpf/openssl/probe.go and ebpf/loader_complete.go, the teacher's real
// cilium/ebpf code.
type Loader struct {
	coll *ebpf.Collection

	kretLink link.Link
	reader   *ringbuf.Reader

	mu     sync.Mutex
	byLib  map[string][]link.Link
	closed bool

	events chan Event
	errs   chan error

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// symbols probed on every attached library, in teacher-style
// attach-and-tolerate-missing-symbol fashion: SSL_write_ex/SSL_read_ex
// exist only on newer OpenSSL and their absence is not fatal (spec.md
// §4.1, original_source's user.rs comment on SSL_write_ex/SSL_sendfile).
type symAttach struct {
	name     string
	progName string
	ret      bool
	optional bool
}

var librarySymbols = []symAttach{
	{name: "SSL_new", progName: "trace_SSL_new", ret: true},
	{name: "SSL_free", progName: "trace_SSL_free", ret: false},
	{name: "SSL_write", progName: "trace_SSL_write", ret: false},
	{name: "SSL_write_ex", progName: "trace_SSL_write_ex", ret: false, optional: true},
	{name: "SSL_read", progName: "trace_SSL_read_entry", ret: false},
	{name: "SSL_read", progName: "trace_SSL_read_ret", ret: true},
	{name: "SSL_read_ex", progName: "trace_SSL_read_ex_entry", ret: false, optional: true},
	{name: "SSL_read_ex", progName: "trace_SSL_read_ex_ret", ret: true, optional: true},
}

// Load reads the compiled BPF object from objectPath, raises the memlock
// limit, attaches the kretprobe on do_sys_openat2, and opens the ring
// buffer reader. The program for individual TLS libraries is attached
// later via AttachLibrary, once internal/discovery locates them.
func Load(ctx context.Context, objectPath string) (*Loader, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, errors.Wrap(err, "probe: adjust memlock")
	}

	spec, err := ebpf.LoadCollectionSpec(objectPath)
	if err != nil {
		return nil, errors.Wrapf(err, "probe: load collection spec %s", objectPath)
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, errors.Wrap(err, "probe: create collection")
	}

	l := &Loader{
		coll:   coll,
		byLib:  make(map[string][]link.Link),
		events: make(chan Event, 1024),
		errs:   make(chan error, 64),
	}

	kprog, ok := coll.Programs["trace_do_sys_openat2"]
	if !ok {
		coll.Close()
		return nil, errors.New("probe: missing program trace_do_sys_openat2")
	}
	kret, err := link.Kretprobe("do_sys_openat2", kprog, nil)
	if err != nil {
		coll.Close()
		return nil, errors.Wrap(err, "probe: attach kretprobe do_sys_openat2")
	}
	l.kretLink = kret

	ringMap, ok := coll.Maps["tls_buf"]
	if !ok {
		l.Close()
		return nil, errors.New("probe: missing map tls_buf")
	}
	reader, err := ringbuf.NewReader(ringMap)
	if err != nil {
		l.Close()
		return nil, errors.Wrap(err, "probe: open ring buffer reader")
	}
	l.reader = reader

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(runCtx)

	return l, nil
}

// AttachLibrary attaches the SSL uprobe/uretprobe set to a single shared
// object at an absolute path. It is idempotent: attaching the same path
// twice is a no-op (spec.md §4.3's admission step is expected to call
// this repeatedly as new processes map the same already-known library).
func (l *Loader) AttachLibrary(path string) error {
	l.mu.Lock()
	if _, already := l.byLib[path]; already {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	exe, err := link.OpenExecutable(path)
	if err != nil {
		return errors.Wrapf(err, "probe: open %s", path)
	}

	var links []link.Link
	for _, s := range librarySymbols {
		prog, ok := l.coll.Programs[s.progName]
		if !ok {
			return errors.Errorf("probe: missing program %s", s.progName)
		}

		var lk link.Link
		var attachErr error
		if s.ret {
			lk, attachErr = exe.Uretprobe(s.name, prog, nil)
		} else {
			lk, attachErr = exe.Uprobe(s.name, prog, nil)
		}
		if attachErr != nil {
			if s.optional {
				printer.Debugf("probe: %s not present in %s, skipping", s.name, path)
				continue
			}
			for _, prev := range links {
				prev.Close()
			}
			return errors.Wrapf(attachErr, "probe: attach %s on %s", s.name, path)
		}
		links = append(links, lk)
	}

	l.mu.Lock()
	l.byLib[path] = links
	l.mu.Unlock()
	return nil
}

// Events returns the channel of decoded probe events.
func (l *Loader) Events() <-chan Event {
	return l.events
}

// Errors returns asynchronous decode/read errors from the ring buffer
// reader goroutine.
func (l *Loader) Errors() <-chan error {
	return l.errs
}

// Close detaches every link, closes the ring buffer reader, and releases
// the loaded collection.
func (l *Loader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		if l.reader != nil {
			l.reader.Close()
		}
		if l.kretLink != nil {
			l.kretLink.Close()
		}

		l.mu.Lock()
		for _, links := range l.byLib {
			for _, lk := range links {
				lk.Close()
			}
		}
		l.closed = true
		l.mu.Unlock()

		if l.coll != nil {
			l.coll.Close()
		}
		close(l.events)
		close(l.errs)
	})
	return err
}

func (l *Loader) enqueueError(err error) {
	select {
	case l.errs <- err:
	default:
	}
}
