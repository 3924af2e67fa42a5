// Package slack implements the telegraph Adapter for Slack using Socket Mode.
//
// The bot answers direct messages and @mentions. A mention in a channel
// starts a thread, and later messages in that thread continue the same
// interview without needing another mention.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph"
)

const (
	platform = "slack"

	maxRetries           = 3
	baseBackoff          = 2 * time.Second
	maxBackoff           = 2 * time.Minute
	maxReconnectAttempts = 10
)

// apiClient is the subset of the Slack Web API the adapter calls.
type apiClient interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
	GetUserInfo(userID string) (*slackapi.User, error)
}

// socketClient is the subset of the Socket Mode client the adapter uses.
type socketClient interface {
	Run() error
	EventsChan() chan socketmode.Event
	Ack(req socketmode.Request, payload ...interface{})
}

type realSocket struct{ c *socketmode.Client }

func (r realSocket) Run() error                        { return r.c.Run() }
func (r realSocket) EventsChan() chan socketmode.Event { return r.c.Events }
func (r realSocket) Ack(req socketmode.Request, payload ...interface{}) {
	r.c.Ack(req, payload...)
}

// Adapter implements telegraph.Adapter for Slack Socket Mode.
type Adapter struct {
	api       apiClient
	socket    socketClient
	appToken  string
	botToken  string
	channelID string

	mu        sync.Mutex
	botUserID string
	connected bool
	closed    bool
	inbound   chan telegraph.InboundMessage
	done      chan struct{}

	// deliverMu guards sends on inbound against Close closing it.
	deliverMu sync.RWMutex
	cancel    context.CancelFunc

	baseBackoff  time.Duration
	maxBackoff   time.Duration
	maxReconnect int
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	AppToken  string // xapp-... app-level token for Socket Mode
	BotToken  string // xoxb-... bot token
	ChannelID string // default channel for messages without one, e.g. the digest

	// Injected in tests instead of the real Slack clients.
	API    apiClient
	Socket socketClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.API == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.Socket == nil && opts.AppToken == "" {
		return nil, fmt.Errorf("slack: app token is required")
	}
	return &Adapter{
		api:          opts.API,
		socket:       opts.Socket,
		appToken:     opts.AppToken,
		botToken:     opts.BotToken,
		channelID:    opts.ChannelID,
		inbound:      make(chan telegraph.InboundMessage, 100),
		done:         make(chan struct{}),
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
		maxReconnect: maxReconnectAttempts,
	}, nil
}

// Connect authenticates and records the bot's user ID.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("slack: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.api == nil {
		client := slackapi.New(a.botToken, slackapi.OptionAppLevelToken(a.appToken))
		a.api = client
		a.socket = realSocket{c: socketmode.New(client)}
	}

	auth, err := a.api.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	a.botUserID = auth.UserID
	a.connected = true
	return nil
}

// Listen starts the Socket Mode loop and returns the inbound channel.
func (a *Adapter) Listen(ctx context.Context) (<-chan telegraph.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("slack: not connected")
	}

	listenCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.runWithReconnect(listenCtx)
	go a.pump(listenCtx)
	return a.inbound, nil
}

// Send posts msg, in its thread when ThreadID is set.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	a.mu.Lock()
	connected := a.connected
	a.mu.Unlock()
	if !connected {
		return fmt.Errorf("slack: not connected")
	}

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	options := messageOptions(msg)
	err := retryRateLimited(ctx, func() error {
		_, _, err := a.api.PostMessage(channelID, options...)
		return err
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close stops the event loop and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.connected = false
	if a.cancel != nil {
		a.cancel()
	}
	close(a.done)
	a.mu.Unlock()

	a.deliverMu.Lock()
	close(a.inbound)
	a.deliverMu.Unlock()
	return nil
}

// BotUserID returns the bot's Slack user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// runWithReconnect restarts the socket with exponential backoff until it
// exits cleanly, ctx is cancelled or the attempts run out.
func (a *Adapter) runWithReconnect(ctx context.Context) {
	wait := a.baseBackoff
	for attempt := 1; attempt <= a.maxReconnect; attempt++ {
		err := a.socket.Run()
		if err == nil || ctx.Err() != nil {
			return
		}
		log.Printf("slack: socket mode disconnected (attempt %d/%d), retrying in %v: %v",
			attempt, a.maxReconnect, wait, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}
	}
	log.Printf("slack: giving up after %d reconnection attempts", a.maxReconnect)
}

func (a *Adapter) pump(ctx context.Context) {
	events := a.socket.EventsChan()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if msg, ok := a.convert(evt); ok {
				a.deliver(ctx, msg)
			}
		}
	}
}

// deliver hands msg to Listen's consumer unless the adapter is shutting down.
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

// convert acknowledges Events API envelopes and turns interview-relevant
// ones into inbound messages.
func (a *Adapter) convert(evt socketmode.Event) (telegraph.InboundMessage, bool) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
	case socketmode.EventTypeConnected:
		log.Printf("slack: connected to Socket Mode")
		return telegraph.InboundMessage{}, false
	case socketmode.EventTypeConnectionError:
		log.Printf("slack: connection error: %v", evt.Data)
		return telegraph.InboundMessage{}, false
	default:
		return telegraph.InboundMessage{}, false
	}

	apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return telegraph.InboundMessage{}, false
	}
	if evt.Request != nil {
		a.socket.Ack(*evt.Request)
	}
	if apiEvent.Type != slackevents.CallbackEvent {
		return telegraph.InboundMessage{}, false
	}

	bot := a.BotUserID()
	switch ev := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if ev.User == "" || ev.User == bot {
			return telegraph.InboundMessage{}, false
		}
		thread := ev.ThreadTimeStamp
		if thread == "" {
			thread = ev.TimeStamp
		}
		return a.inboundFrom(ev.Channel, thread, ev.User, ev.Text, ev.TimeStamp), true

	case *slackevents.MessageEvent:
		if ev.User == "" || ev.User == bot || ev.BotID != "" || ev.SubType != "" {
			return telegraph.InboundMessage{}, false
		}
		// Mentions arrive again as AppMentionEvent.
		if bot != "" && strings.Contains(ev.Text, "<@"+bot+">") {
			return telegraph.InboundMessage{}, false
		}
		if ev.ChannelType != "im" && ev.ThreadTimeStamp == "" {
			return telegraph.InboundMessage{}, false
		}
		return a.inboundFrom(ev.Channel, ev.ThreadTimeStamp, ev.User, ev.Text, ev.TimeStamp), true
	}
	return telegraph.InboundMessage{}, false
}

func (a *Adapter) inboundFrom(channel, thread, user, text, ts string) telegraph.InboundMessage {
	return telegraph.InboundMessage{
		Platform:  platform,
		ChannelID: channel,
		ThreadID:  thread,
		UserID:    user,
		UserName:  a.userName(user),
		Text:      text,
		Timestamp: parseTimestamp(ts),
	}
}

// userName resolves a display name, falling back to the user ID.
func (a *Adapter) userName(userID string) string {
	user, err := a.api.GetUserInfo(userID)
	if err != nil || user == nil {
		return userID
	}
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return userID
}

func messageOptions(msg telegraph.OutboundMessage) []slackapi.MsgOption {
	var options []slackapi.MsgOption
	if msg.ThreadID != "" {
		options = append(options, slackapi.MsgOptionTS(msg.ThreadID))
	}
	if len(msg.Events) > 0 {
		attachments := make([]slackapi.Attachment, 0, len(msg.Events))
		for _, evt := range msg.Events {
			attachments = append(attachments, attachment(evt))
		}
		options = append(options, slackapi.MsgOptionAttachments(attachments...))
	}
	if msg.Text != "" || len(msg.Events) == 0 {
		options = append(options, slackapi.MsgOptionText(msg.Text, false))
	}
	return options
}

func attachment(evt telegraph.FormattedEvent) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{Title: f.Name, Value: f.Value, Short: f.Short})
	}
	return att
}

// retryRateLimited retries fn while Slack answers with a rate limit,
// waiting the advertised Retry-After (or 1s, 2s, 4s when absent).
func retryRateLimited(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxRetries {
			return err
		}
		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Second << attempt
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// parseTimestamp converts a Slack ts ("1700000000.000100") to a time.
func parseTimestamp(ts string) time.Time {
	secs, frac, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var usec int64
	if frac != "" {
		usec, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(sec, usec*int64(time.Microsecond))
}
