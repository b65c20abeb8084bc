// Package transport is the thin splitter between the kernel ring and the
// two user-space workers: it reinterprets each probe event by kind and
// routes OpenAt events to discovery and everything else to the
// interpreter, and it owns the 60-second cleanup tick (spec.md §4.2).
package transport

import (
	"bytes"
	"context"
	"time"

	"github.com/Metrist-Software/ebpf-agent/internal/discovery"
	"github.com/Metrist-Software/ebpf-agent/internal/probe"
)

// discoveryChanCapacity matches the reference agent's open-message
// channel (spec.md §4.2: "bounded, reference capacity 1024, overflow
// blocks the reader").
const discoveryChanCapacity = 1024

// cleanupInterval is how often the dispatcher triggers the interpreter's
// periodic cleanup (spec.md §4.2).
const cleanupInterval = 60 * time.Second

// EventSink is the subset of *interpreter.Interpreter the dispatcher
// drives, kept as an interface so this package has no compile-time
// dependency on HPACK/HTTP parsing.
type EventSink interface {
	HandleEvent(ev probe.Event)
	Cleanup()
}

// Dispatcher drains a probe event source and fans it out. Discovery runs
// on its own goroutine (it performs blocking file-system reads); the
// interpreter is invoked synchronously on the dispatcher's own goroutine,
// since its work is pure in-memory state update (spec.md §5).
type Dispatcher struct {
	events      <-chan probe.Event
	interpreter EventSink
	controller  *discovery.Controller

	openEvents chan discovery.OpenEvent
}

// New builds a dispatcher reading from events and routing to interpreter
// and controller.
func New(events <-chan probe.Event, interpreter EventSink, controller *discovery.Controller) *Dispatcher {
	return &Dispatcher{
		events:      events,
		interpreter: interpreter,
		controller:  controller,
		openEvents:  make(chan discovery.OpenEvent, discoveryChanCapacity),
	}
}

// Run drives the dispatcher until ctx is canceled or the event source is
// closed. It blocks the calling goroutine; main calls it directly and
// returns once it does.
func (d *Dispatcher) Run(ctx context.Context) {
	go d.runDiscoveryWorker(ctx)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			d.interpreter.Cleanup()

		case ev, ok := <-d.events:
			if !ok {
				return
			}
			d.route(ev)
		}
	}
}

func (d *Dispatcher) route(ev probe.Event) {
	if ev.Kind == probe.KindOpenAt {
		// bpf_probe_read_user_str includes the null terminator in the
		// reported length (bpf/tlsmon.c), which original_source strips
		// before building a path; do the same here.
		path := string(bytes.TrimRight(ev.Payload(), "\x00"))

		// Intentional backpressure: a full discovery channel blocks this
		// goroutine, which in turn halts ring drainage (spec.md §5,
		// "this is the intended policy").
		d.openEvents <- discovery.OpenEvent{
			Path: path,
			PID:  ev.PID,
			TGID: ev.TGID,
		}
		return
	}
	d.interpreter.HandleEvent(ev)
}

// runDiscoveryWorker owns the discovery controller's own 60-second
// cleanup check. Unlike the interpreter's dispatcher-driven tick, this
// mirrors original_source/src/open_listener.rs's run_open_listener,
// which checks elapsed wall-clock time inline on every received message
// rather than on a separate timer (so an idle discovery worker with no
// new opens simply never runs cleanup, same as the reference).
func (d *Dispatcher) runDiscoveryWorker(ctx context.Context) {
	lastCleanup := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.openEvents:
			if time.Since(lastCleanup) > cleanupInterval {
				d.controller.Cleanup()
				lastCleanup = time.Now()
			}
			d.controller.HandleOpenEvent(ev)
		}
	}
}
