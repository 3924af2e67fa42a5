package telegraph

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

// Daemon connects to a chat platform, pumps inbound messages through the
// Bridge and runs the optional digest.
type Daemon struct {
	adapter Adapter
	turner  Turner
	digest  *Digest
	maxLen  int
	workers int
	out     io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	Adapter Adapter
	Turner  Turner
	Digest  *Digest // optional
	MaxLen  int
	Workers int       // concurrent sessions; defaults to DefaultWorkers
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	if opts.Turner == nil {
		return nil, fmt.Errorf("telegraph: turner is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		adapter: opts.Adapter,
		turner:  opts.Turner,
		digest:  opts.Digest,
		maxLen:  opts.MaxLen,
		workers: opts.Workers,
		out:     out,
	}, nil
}

// Run connects the adapter and blocks until the context is cancelled or
// the adapter's inbound channel closes. Distinct sessions are served
// concurrently; messages within one session keep their arrival order.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Telegraph connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("telegraph: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	bridge, err := NewBridge(BridgeOpts{
		Turner:    d.turner,
		Adapter:   d.adapter,
		BotUserID: botUserID,
		MaxLen:    d.maxLen,
	})
	if err != nil {
		d.adapter.Close()
		return err
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: listen: %w", err)
	}

	if d.digest != nil {
		go func() {
			if err := d.digest.Run(ctx); err != nil {
				log.Printf("telegraph: digest: %v", err)
			}
		}()
	}

	workers := newDispatcher(d.workers, bridge.Handle)
	fmt.Fprintf(d.out, "Telegraph online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Telegraph shutting down...\n")
			if err := d.adapter.Close(); err != nil {
				log.Printf("telegraph: close adapter: %v", err)
			}
			workers.wait()
			fmt.Fprintf(d.out, "Telegraph stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				workers.wait()
				fmt.Fprintf(d.out, "Telegraph inbound channel closed\n")
				return nil
			}
			workers.dispatch(ctx, msg)
		}
	}
}
