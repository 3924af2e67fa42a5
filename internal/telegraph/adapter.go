// Package telegraph carries interview turns over chat platforms (Slack,
// Discord) and posts the periodic completion digest.
package telegraph

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the adapter is closed. Listen must only be
	// called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close shuts down the adapter connection.
	Close() error
}

// InboundMessage is a message received from the chat platform.
type InboundMessage struct {
	Platform  string // "slack", "discord"
	ChannelID string
	ThreadID  string // empty for top-level messages
	UserID    string
	UserName  string
	Text      string
	Timestamp time.Time
}

// OutboundMessage is a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string // empty means the adapter's default channel
	ThreadID  string
	Text      string
	Events    []FormattedEvent
}

// FormattedEvent is a card-style attachment, used for the digest.
type FormattedEvent struct {
	Title  string
	Body   string
	Color  string // sidebar color hint, e.g. "#2196f3"
	Fields []Field
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool
}

// BotUserIDer is implemented by adapters that know their own user ID.
type BotUserIDer interface {
	BotUserID() string
}
