package telegraph

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

func TestDispatcher_SlowSessionDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	answered := make(chan string, 2)
	d := newDispatcher(2, func(_ context.Context, msg InboundMessage) {
		if msg.ThreadID == "slow" {
			<-release
		}
		answered <- msg.ThreadID
	})

	ctx := context.Background()
	d.dispatch(ctx, InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "slow"})
	d.dispatch(ctx, InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "fast"})

	select {
	case got := <-answered:
		if got != "fast" {
			t.Errorf("first answered = %q, want fast", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast session waited behind the slow one")
	}
	close(release)
	d.wait()
}

func TestDispatcher_KeepsSessionOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		order    []string
		inFlight int
		overlap  bool
	)
	d := newDispatcher(4, func(_ context.Context, msg InboundMessage) {
		mu.Lock()
		inFlight++
		if inFlight > 1 {
			overlap = true
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, msg.Text)
		inFlight--
		mu.Unlock()
	})

	ctx := context.Background()
	var want []string
	for i := 0; i < 20; i++ {
		text := fmt.Sprintf("m%d", i)
		want = append(want, text)
		d.dispatch(ctx, InboundMessage{Platform: "discord", ChannelID: "C1", ThreadID: "T1", Text: text})
	}
	d.wait()

	if overlap {
		t.Error("two turns of one session ran at the same time")
	}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestDispatcher_CancelDropsQueued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	var mu sync.Mutex
	handled := 0
	d := newDispatcher(1, func(context.Context, InboundMessage) {
		mu.Lock()
		handled++
		mu.Unlock()
		<-block
	})

	d.dispatch(ctx, InboundMessage{ThreadID: "a"})
	d.dispatch(ctx, InboundMessage{ThreadID: "b"})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 1
	})
	cancel()
	close(block)
	d.wait()

	mu.Lock()
	defer mu.Unlock()
	if handled > 2 {
		t.Errorf("handled = %d", handled)
	}
}

// blockingTurner holds turns for one session until released.
type blockingTurner struct {
	slowSession string
	release     chan struct{}
}

func (b *blockingTurner) Handle(_ context.Context, sessionID, message string) (interview.Reply, error) {
	if sessionID == b.slowSession {
		<-b.release
	}
	return interview.Reply{Text: "echo: " + message}, nil
}

func TestDaemon_ServesSessionsConcurrently(t *testing.T) {
	adapter := NewMockAdapter()
	turner := &blockingTurner{slowSession: "slack:C1:slow", release: make(chan struct{})}
	out := &syncBuffer{}
	d, err := NewDaemon(DaemonOpts{Adapter: adapter, Turner: turner, Out: out})
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	adapter.SimulateInbound(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "slow", UserID: "U1", Text: "first"})
	adapter.SimulateInbound(InboundMessage{Platform: "slack", ChannelID: "C1", ThreadID: "fast", UserID: "U2", Text: "second"})

	waitFor(t, func() bool { return adapter.SentCount() == 1 })
	sent, _ := adapter.LastSent()
	if sent.ThreadID != "fast" {
		t.Errorf("first reply went to %q, want fast", sent.ThreadID)
	}

	close(turner.release)
	waitFor(t, func() bool { return adapter.SentCount() == 2 })
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
