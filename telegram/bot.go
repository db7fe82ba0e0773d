// Package telegram is the chat transport: a long-polling client for the
// Telegram Bot API that routes incoming messages to the engine and sends the
// replies back.
//
// The pack of libraries this project builds on has no Telegram SDK, so the
// client speaks the two Bot API methods it needs (getUpdates, sendMessage)
// over net/http directly.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leobot/leo/logging"
)

const defaultBaseURL = "https://api.telegram.org"

// Handler consumes routed updates. Implemented by engine.Engine.
type Handler interface {
	HandleMessage(ctx context.Context, userID, text string) string
	HandleCommand(ctx context.Context, userID, command string) string
}

// Options configure the bot.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// PollTimeout is the long-poll window passed to getUpdates.
	PollTimeout time.Duration
	Logger      logging.Logger
}

// Bot long-polls the Telegram API and dispatches updates to the handler.
// Each update is handled in its own goroutine; the engine's per-user lock
// provides ordering for messages from the same user.
type Bot struct {
	token   string
	handler Handler
	opts    Options

	offset int64
}

// NewBot creates a bot for the given API token.
func NewBot(token string, handler Handler, optFns ...func(o *Options)) *Bot {
	opts := Options{
		BaseURL:     defaultBaseURL,
		PollTimeout: 30 * time.Second,
		Logger:      logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		// The HTTP timeout must outlast the long-poll window.
		opts.HTTPClient = &http.Client{Timeout: opts.PollTimeout + 10*time.Second}
	}

	return &Bot{token: token, handler: handler, opts: opts}
}

// Run polls for updates until the context is cancelled. Poll failures are
// logged and retried after a short pause.
func (b *Bot) Run(ctx context.Context) error {
	b.opts.Logger.Info("telegram.poll.start")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.opts.Logger.Warn("telegram.poll.failed", "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			b.advanceOffset(update.UpdateID)
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			go b.dispatch(ctx, update.Message)
		}
	}
}

// dispatch routes one message and sends the reply back to its chat.
func (b *Bot) dispatch(ctx context.Context, msg *Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)

	var reply string
	if strings.HasPrefix(msg.Text, "/") {
		reply = b.handler.HandleCommand(ctx, userID, msg.Text)
	} else {
		reply = b.handler.HandleMessage(ctx, userID, msg.Text)
	}

	if reply == "" {
		return
	}
	if err := b.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		b.opts.Logger.Error("telegram.send.failed", "chat_id", msg.Chat.ID, "error", err)
	}
}

// Update and Message mirror the subset of the Bot API payload the bot reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
}

func (b *Bot) getUpdates(ctx context.Context) ([]Update, error) {
	params := url.Values{
		"timeout": {strconv.Itoa(int(b.opts.PollTimeout.Seconds()))},
	}
	if b.offset > 0 {
		params.Set("offset", strconv.FormatInt(b.offset, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.methodURL("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	var payload updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", payload.Description)
	}

	return payload.Result, nil
}

// SendMessage posts a text reply into a chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.methodURL("sendMessage"),
		strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// advanceOffset acknowledges an update so the next poll skips it.
func (b *Bot) advanceOffset(updateID int64) {
	if updateID >= b.offset {
		b.offset = updateID + 1
	}
}

func (b *Bot) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.opts.BaseURL, b.token, method)
}
