package telegraph

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

const bridgeErrorReply = "Sorry, something went wrong on my side. Please send that again."

// Turner runs one interview turn. *interview.Service satisfies it.
type Turner interface {
	Handle(ctx context.Context, sessionID, message string) (interview.Reply, error)
}

// Bridge routes inbound chat messages into interview sessions and sends the
// replies back to the same thread.
type Bridge struct {
	turner    Turner
	adapter   Adapter
	botUserID string
	maxLen    int
}

// BridgeOpts holds parameters for creating a Bridge.
type BridgeOpts struct {
	Turner    Turner
	Adapter   Adapter
	BotUserID string // messages from this user are ignored
	MaxLen    int    // defaults to DefaultMaxMessageLen
}

// NewBridge creates a Bridge.
func NewBridge(opts BridgeOpts) (*Bridge, error) {
	if opts.Turner == nil {
		return nil, fmt.Errorf("telegraph: turner is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	return &Bridge{
		turner:    opts.Turner,
		adapter:   opts.Adapter,
		botUserID: opts.BotUserID,
		maxLen:    maxLen,
	}, nil
}

// SessionID derives the interview session key for a chat message. Each
// thread is its own interview; top-level messages share one per channel.
func SessionID(msg InboundMessage) string {
	return msg.Platform + ":" + msg.ChannelID + ":" + msg.ThreadID
}

// Handle runs one turn for msg and posts the reply.
func (b *Bridge) Handle(ctx context.Context, msg InboundMessage) {
	if b.botUserID != "" && msg.UserID == b.botUserID {
		return
	}

	text := stripMentions(msg.Text)
	id := SessionID(msg)
	reply, err := b.turner.Handle(ctx, id, text)
	body := reply.Render()
	if err != nil {
		log.Printf("telegraph: turn for %s: %v", id, err)
		body = bridgeErrorReply
	}

	for _, chunk := range chunkMessage(body, b.maxLen) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		out := OutboundMessage{ChannelID: msg.ChannelID, ThreadID: msg.ThreadID, Text: chunk}
		if err := b.adapter.Send(ctx, out); err != nil {
			log.Printf("telegraph: send reply for %s: %v", id, err)
			return
		}
	}
}
