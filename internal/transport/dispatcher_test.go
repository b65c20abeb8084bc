package transport

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Metrist-Software/ebpf-agent/internal/discovery"
	"github.com/Metrist-Software/ebpf-agent/internal/probe"
)

type fakeEventSink struct {
	handled []probe.Event
	cleanup int
}

func (f *fakeEventSink) HandleEvent(ev probe.Event) { f.handled = append(f.handled, ev) }
func (f *fakeEventSink) Cleanup()                   { f.cleanup++ }

type fakeAttacher struct{}

func (fakeAttacher) AttachLibrary(string) error { return nil }

type recordingAttacher struct {
	mu       sync.Mutex
	attached []string
}

func (a *recordingAttacher) AttachLibrary(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attached = append(a.attached, path)
	return nil
}

func (a *recordingAttacher) paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.attached...)
}

func TestDispatcherRoutesOpenAtToDiscovery(t *testing.T) {
	events := make(chan probe.Event, 4)
	sink := &fakeEventSink{}
	controller := discovery.NewController(fakeAttacher{}, 0)
	d := New(events, sink, controller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var openAt probe.Event
	openAt.Kind = probe.KindOpenAt
	openAt.PID = 1
	openAt.TGID = 1
	path := []byte("/lib/libssl.so.3")
	openAt.Len = uint32(len(path))
	copy(openAt.Data[:], path)

	var newEv probe.Event
	newEv.Kind = probe.KindNew
	newEv.Handle = 1

	events <- openAt
	events <- newEv

	deadline := time.After(2 * time.Second)
	for len(sink.handled) < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the New event to reach the interpreter sink")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if len(sink.handled) != 1 || sink.handled[0].Kind != probe.KindNew {
		t.Fatalf("expected only the New event to reach the interpreter sink, got %+v", sink.handled)
	}
}

// bpf_probe_read_user_str's returned length includes the trailing null
// terminator (bpf/tlsmon.c); a real OpenAt payload is never an exact,
// non-NUL-terminated string like the fixture above.
func TestDispatcherTrimsTrailingNULFromOpenAtPath(t *testing.T) {
	events := make(chan probe.Event, 1)
	sink := &fakeEventSink{}
	attacher := &recordingAttacher{}
	controller := discovery.NewController(attacher, 0)
	d := New(events, sink, controller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	const path = "/lib/libssl.so.3"
	withNUL := append([]byte(path), 0)

	pid := uint32(os.Getpid())
	var openAt probe.Event
	openAt.Kind = probe.KindOpenAt
	openAt.PID = pid
	openAt.TGID = pid
	openAt.Len = uint32(len(withNUL))
	copy(openAt.Data[:], withNUL)

	events <- openAt

	deadline := time.After(2 * time.Second)
	for len(attacher.paths()) < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for discovery to attach the library")
		case <-time.After(5 * time.Millisecond):
		}
	}

	got := attacher.paths()[0]
	if strings.ContainsRune(got, 0) {
		t.Fatalf("attached path retained a NUL byte: %q", got)
	}
	if !strings.HasSuffix(got, path) {
		t.Fatalf("attached path = %q, want suffix %q", got, path)
	}
}
