package telegraph

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the daemon goroutine and the test
// to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewDaemon_Validation(t *testing.T) {
	if _, err := NewDaemon(DaemonOpts{Turner: &fakeTurner{}}); err == nil {
		t.Error("expected error for missing adapter")
	}
	if _, err := NewDaemon(DaemonOpts{Adapter: NewMockAdapter()}); err == nil {
		t.Error("expected error for missing turner")
	}
}

func TestDaemon_RunPumpsMessages(t *testing.T) {
	adapter := NewMockAdapter()
	adapter.SetBotUserID("U_BOT")
	turner := &fakeTurner{}
	out := &syncBuffer{}

	d, err := NewDaemon(DaemonOpts{Adapter: adapter, Turner: turner, Out: out})
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	adapter.SimulateInbound(InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U_BOT", Text: "ignored"})
	adapter.SimulateInbound(InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Text: "hello"})

	waitFor(t, func() bool { return adapter.SentCount() >= 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	turns := turner.all()
	if len(turns) != 1 || turns[0].message != "hello" {
		t.Errorf("turns = %+v, want only the user's message", turns)
	}
	if !strings.Contains(out.String(), "Telegraph online") || !strings.Contains(out.String(), "Telegraph stopped") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDaemon_InboundClosedEndsRun(t *testing.T) {
	adapter := NewMockAdapter()
	out := &syncBuffer{}
	d, _ := NewDaemon(DaemonOpts{Adapter: adapter, Turner: &fakeTurner{}, Out: out})

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "Telegraph online") })
	adapter.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after inbound closed")
	}
}

func TestMockAdapter_RequiresConnect(t *testing.T) {
	m := NewMockAdapter()
	if _, err := m.Listen(context.Background()); err == nil {
		t.Error("Listen before Connect should fail")
	}
	if err := m.Send(context.Background(), OutboundMessage{Text: "x"}); err == nil {
		t.Error("Send before Connect should fail")
	}
	m.Close()
	if err := m.Connect(context.Background()); err == nil {
		t.Error("Connect after Close should fail")
	}
}
