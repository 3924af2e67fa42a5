package telegraph

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Counter counts completed case studies. transcript.FileStore and
// transcript.IndexStore satisfy it.
type Counter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Digest posts the number of case studies completed since the previous
// digest on a cron schedule. Periods with nothing completed are skipped.
type Digest struct {
	counter   Counter
	adapter   Adapter
	channelID string
	expr      string
	now       func() time.Time

	mu   sync.Mutex
	last time.Time
}

// DigestOpts holds parameters for creating a Digest.
type DigestOpts struct {
	Counter   Counter
	Adapter   Adapter
	ChannelID string // empty posts to the adapter's default channel
	Cron      string
	Now       func() time.Time
}

// NewDigest creates a Digest. The first period starts at creation time.
func NewDigest(opts DigestOpts) (*Digest, error) {
	if opts.Counter == nil {
		return nil, fmt.Errorf("telegraph: counter is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	if _, err := parseSchedule(opts.Cron); err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Digest{
		counter:   opts.Counter,
		adapter:   opts.Adapter,
		channelID: opts.ChannelID,
		expr:      opts.Cron,
		now:       now,
		last:      now(),
	}, nil
}

// Run schedules the digest and blocks until ctx is cancelled.
func (d *Digest) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(d.expr, func() { d.Fire(ctx) }); err != nil {
		return fmt.Errorf("telegraph: schedule digest: %w", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Fire posts one digest covering the period since the previous one. It
// reports whether a message was sent.
func (d *Digest) Fire(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	until := d.now()
	count, err := d.counter.CountSince(ctx, d.last)
	if err != nil {
		log.Printf("telegraph: digest count: %v", err)
		return false
	}
	since := d.last
	d.last = until
	if count == 0 {
		return false
	}

	msg := OutboundMessage{
		ChannelID: d.channelID,
		Events:    []FormattedEvent{formatDigest(count, since, until)},
	}
	if err := d.adapter.Send(ctx, msg); err != nil {
		log.Printf("telegraph: send digest: %v", err)
		return false
	}
	return true
}
