// Command tlsflow-agent discovers TLS libraries in use on the host,
// attaches kernel and user-space tracing probes to them, reconstructs
// HTTP/1.1 and HTTP/2 request metadata observed around the TLS boundary,
// and emits one stats line per completed request to a downstream
// collector.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Metrist-Software/ebpf-agent/internal/cfg"
	"github.com/Metrist-Software/ebpf-agent/internal/discovery"
	"github.com/Metrist-Software/ebpf-agent/internal/interpreter"
	"github.com/Metrist-Software/ebpf-agent/internal/kernelcheck"
	"github.com/Metrist-Software/ebpf-agent/internal/printer"
	"github.com/Metrist-Software/ebpf-agent/internal/probe"
	"github.com/Metrist-Software/ebpf-agent/internal/transport"
	"github.com/Metrist-Software/ebpf-agent/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "tlsflow-agent",
	Short:        "Trace outbound TLS HTTP traffic via eBPF and report per-request timing.",
	Long:         "tlsflow-agent attaches kernel and user-space probes to discover TLS library usage, reconstructs per-request HTTP metadata, and reports timing to a downstream collector.",
	SilenceUsage: true,
	RunE:         runAgent,
}

var versionCmd = &cobra.Command{
	Use:          "version",
	Short:        "Print the agent's version and exit.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer.Infof("tlsflow-agent %s", version.DisplayString())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if level, ok := printer.ParseLevel(cfg.LogLevel()); ok {
		printer.SetLevel(level)
	}

	if err := rootCmd.Execute(); err != nil {
		printer.Errorf("tlsflow-agent: %v", err)
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	if err := kernelcheck.Check(); err != nil {
		return errors.Wrap(err, "startup aborted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader, err := probe.Load(ctx, cfg.BPFObjectPath())
	if err != nil {
		return errors.Wrap(err, "startup aborted")
	}
	defer loader.Close()

	sink, err := interpreter.NewUDPSink(cfg.CollectorEndpoint())
	if err != nil {
		return errors.Wrap(err, "startup aborted")
	}
	defer sink.Close()

	ip := interpreter.New(sink)
	controller := discovery.NewController(loader, discovery.SelfPID())
	dispatcher := transport.New(loader.Events(), ip, controller)

	go logProbeErrors(ctx, loader.Errors())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		printer.Infof("tlsflow-agent: received %s, shutting down", sig)
		cancel()
	}()

	printer.Infof("tlsflow-agent %s: probes attached, listening", version.DisplayString())
	dispatcher.Run(ctx)
	printer.Infof("tlsflow-agent: shutdown complete")
	return nil
}

func logProbeErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			printer.Warningf("probe: %v", err)
		}
	}
}
