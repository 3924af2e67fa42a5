package telegraph

import (
	"context"
	"sync"
)

// DefaultWorkers bounds how many sessions run a turn at the same time.
const DefaultWorkers = 4

// dispatcher runs turns for distinct sessions concurrently while keeping
// each session's messages in arrival order. A session has at most one
// worker goroutine, which exits once its queue drains.
type dispatcher struct {
	handle func(ctx context.Context, msg InboundMessage)
	sem    chan struct{}

	mu     sync.Mutex
	queues map[string][]InboundMessage
	wg     sync.WaitGroup
}

func newDispatcher(workers int, handle func(ctx context.Context, msg InboundMessage)) *dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &dispatcher{
		handle: handle,
		sem:    make(chan struct{}, workers),
		queues: make(map[string][]InboundMessage),
	}
}

// dispatch queues msg behind any pending turns for the same session.
func (d *dispatcher) dispatch(ctx context.Context, msg InboundMessage) {
	id := SessionID(msg)
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, busy := d.queues[id]; busy {
		d.queues[id] = append(q, msg)
		return
	}
	d.queues[id] = []InboundMessage{msg}
	d.wg.Add(1)
	go d.work(ctx, id)
}

func (d *dispatcher) work(ctx context.Context, id string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[id]
		if len(q) == 0 {
			delete(d.queues, id)
			d.mu.Unlock()
			return
		}
		msg := q[0]
		d.queues[id] = q[1:]
		d.mu.Unlock()

		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			d.drop(id)
			return
		}
		d.handle(ctx, msg)
		<-d.sem
	}
}

// drop discards a session's pending messages after shutdown.
func (d *dispatcher) drop(id string) {
	d.mu.Lock()
	delete(d.queues, id)
	d.mu.Unlock()
}

// wait blocks until every worker has exited.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
