// Package discord implements the telegraph Adapter for Discord using the Gateway WebSocket.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph"
)

const (
	platform    = "discord"
	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 30 * time.Second
)

// session is the subset of *discordgo.Session the adapter uses.
type session interface {
	Open() error
	Close() error
	Channel(channelID string) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

type realSession struct{ s *discordgo.Session }

func (r realSession) Open() error  { return r.s.Open() }
func (r realSession) Close() error { return r.s.Close() }

// Channel checks the state cache first and falls back to the REST API.
func (r realSession) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := r.s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return r.s.Channel(channelID)
}

func (r realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}

func (r realSession) AddHandler(handler interface{}) func() { return r.s.AddHandler(handler) }

// Adapter implements telegraph.Adapter for Discord. It answers direct
// messages, messages in threads, and messages in the configured channel.
type Adapter struct {
	sess      session
	botToken  string
	channelID string

	mu            sync.Mutex
	botUserID     string
	connected     bool
	closed        bool
	inbound       chan telegraph.InboundMessage
	done          chan struct{}
	deliverMu     sync.RWMutex // guards sends on inbound against Close closing it
	removeHandler func()
	baseBackoff   time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string // interview channel and default destination

	// Injected in tests instead of a real gateway session.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	return &Adapter{
		sess:        opts.Session,
		botToken:    opts.BotToken,
		channelID:   opts.ChannelID,
		inbound:     make(chan telegraph.InboundMessage, 100),
		done:        make(chan struct{}),
		baseBackoff: baseBackoff,
	}, nil
}

// Connect opens the gateway. The bot's user ID arrives with the Ready event.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentsMessageContent
		a.sess = realSession{s: dg}
	}

	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.SetBotUserID(r.User.ID)
		log.Printf("discord: connected as %s", r.User.Username)
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	a.connected = true
	return nil
}

// Listen registers the message handler and returns the inbound channel.
func (a *Adapter) Listen(ctx context.Context) (<-chan telegraph.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}
	a.removeHandler = a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if msg, ok := a.convert(m); ok {
			a.deliver(ctx, msg)
		}
	})
	return a.inbound, nil
}

// Send posts msg. Discord threads are channels, so a ThreadID is used as
// the destination channel.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	a.mu.Lock()
	connected := a.connected
	a.mu.Unlock()
	if !connected {
		return fmt.Errorf("discord: not connected")
	}

	target := msg.ThreadID
	if target == "" {
		target = msg.ChannelID
	}
	if target == "" {
		target = a.channelID
	}
	if target == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	data := messageSend(msg)
	err := a.retryRateLimited(ctx, func() error {
		_, err := a.sess.ChannelMessageSendComplex(target, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}

// Close removes the handler, closes the inbound channel and the gateway.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.connected = false
	if a.removeHandler != nil {
		a.removeHandler()
	}
	close(a.done)
	sess := a.sess
	a.mu.Unlock()

	a.deliverMu.Lock()
	close(a.inbound)
	a.deliverMu.Unlock()
	if sess != nil {
		return sess.Close()
	}
	return nil
}

// BotUserID returns the bot's user ID once the gateway is ready.
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// SetBotUserID sets the ID used to ignore the bot's own messages.
func (a *Adapter) SetBotUserID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.botUserID = id
}

func (a *Adapter) deliver(ctx context.Context, msg telegraph.InboundMessage) {
	a.deliverMu.RLock()
	defer a.deliverMu.RUnlock()
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case a.inbound <- msg:
	case <-a.done:
	case <-ctx.Done():
	}
}

// convert filters and maps a gateway message. A message inside a thread
// reports the parent as its channel and the thread as ThreadID.
func (a *Adapter) convert(m *discordgo.MessageCreate) (telegraph.InboundMessage, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return telegraph.InboundMessage{}, false
	}
	if m.Author.ID == a.BotUserID() {
		return telegraph.InboundMessage{}, false
	}

	channelID, threadID := m.ChannelID, ""
	direct := m.GuildID == ""
	if !direct {
		if ch, err := a.sess.Channel(m.ChannelID); err == nil && ch.IsThread() {
			channelID, threadID = ch.ParentID, m.ChannelID
		}
		if threadID == "" && a.channelID != "" && channelID != a.channelID {
			return telegraph.InboundMessage{}, false
		}
	}

	ts, err := discordgo.SnowflakeTimestamp(m.ID)
	if err != nil {
		ts = time.Now()
	}
	return telegraph.InboundMessage{
		Platform:  platform,
		ChannelID: channelID,
		ThreadID:  threadID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		Text:      m.Content,
		Timestamp: ts,
	}, true
}

func messageSend(msg telegraph.OutboundMessage) *discordgo.MessageSend {
	data := &discordgo.MessageSend{Content: msg.Text}
	for _, evt := range msg.Events {
		data.Embeds = append(data.Embeds, embed(evt))
	}
	return data
}

func embed(evt telegraph.FormattedEvent) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       hexColor(evt.Color),
	}
	for _, f := range evt.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Short})
	}
	return e
}

// hexColor parses "#2196f3" into an embed color; invalid input yields 0.
func hexColor(s string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// retryRateLimited retries fn on HTTP 429 with exponential backoff.
func (a *Adapter) retryRateLimited(ctx context.Context, fn func() error) error {
	wait := a.baseBackoff
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil ||
			restErr.Response.StatusCode != http.StatusTooManyRequests || attempt == maxRetries {
			return err
		}
		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v", attempt+1, maxRetries, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
	return err
}
