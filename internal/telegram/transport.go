package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alekspetrov/ticketpilot/internal/bot"
	"github.com/alekspetrov/ticketpilot/internal/logging"
)

// Dispatcher is the core entry point the transport hands events to.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *bot.Event) *bot.Response
}

// Transport handles Telegram polling and delegates event processing to the
// dispatcher. Updates from different users are processed concurrently; the
// dispatcher's per-user session row is the serialization point.
type Transport struct {
	client      *Client
	dispatcher  Dispatcher
	pollTimeout int
	offset      int64
	mu          sync.Mutex
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewTransport creates a new Telegram transport layer.
func NewTransport(client *Client, dispatcher Dispatcher, pollTimeout int) *Transport {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Transport{
		client:      client,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		stopCh:      make(chan struct{}),
	}
}

// StartPolling begins the long-polling loop in a goroutine.
func (t *Transport) StartPolling(ctx context.Context) {
	t.wg.Add(1)
	go t.pollLoop(ctx)
}

// Stop gracefully stops the polling loop.
func (t *Transport) Stop() {
	close(t.stopCh)
	t.wg.Wait()
}

// pollLoop continuously fetches and processes updates.
func (t *Transport) pollLoop(ctx context.Context) {
	defer t.wg.Done()

	logging.WithComponent("telegram").Debug("Transport poll loop started")

	for {
		select {
		case <-ctx.Done():
			logging.WithComponent("telegram").Debug("Transport poll loop stopped")
			return
		case <-t.stopCh:
			logging.WithComponent("telegram").Debug("Transport poll loop stopped")
			return
		default:
			t.fetchAndProcess(ctx)
		}
	}
}

// fetchAndProcess fetches updates from Telegram and processes them.
func (t *Transport) fetchAndProcess(ctx context.Context) {
	updates, err := t.client.GetUpdates(ctx, t.offset, t.pollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			logging.WithComponent("telegram").Warn("Error fetching updates", slog.Any("error", err))
		}
		time.Sleep(time.Second)
		return
	}

	for _, update := range updates {
		event := t.toEvent(ctx, update)
		if event != nil {
			// Per-update goroutine: inputs from different users must not
			// wait on each other's remote calls.
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.process(ctx, event)
			}()
		}

		t.mu.Lock()
		if update.UpdateID >= t.offset {
			t.offset = update.UpdateID + 1
		}
		t.mu.Unlock()
	}
}

// toEvent converts a Telegram update into a dispatchable event. Callback
// payloads flow through the same path as typed text.
func (t *Transport) toEvent(ctx context.Context, update *Update) *bot.Event {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return nil
		}
		// Clear the client-side loading state right away.
		_ = t.client.AnswerCallback(ctx, cb.ID, "")

		return &bot.Event{
			UserID:     strconv.FormatInt(cb.From.ID, 10),
			Username:   cb.From.Username,
			FirstName:  cb.From.FirstName,
			ChatID:     strconv.FormatInt(cb.Message.Chat.ID, 10),
			Text:       cb.Data,
			IsCallback: true,
		}
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	return &bot.Event{
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		Text:      msg.Text,
	}
}

// process dispatches one event and sends the response back to the chat.
func (t *Transport) process(ctx context.Context, event *bot.Event) {
	response := t.dispatcher.Dispatch(ctx, event)
	if response == nil || response.Text == "" {
		return
	}

	if err := t.send(ctx, event.ChatID, response); err != nil {
		logging.WithComponent("telegram").Warn("Failed to send response",
			slog.String("chat_id", event.ChatID), slog.Any("error", err))
	}
}

// send renders and delivers a response, chunking long text. A keyboard, if
// present, is attached to the final chunk.
func (t *Transport) send(ctx context.Context, chatID string, response *bot.Response) error {
	chunks := chunkContent(response.Text, MaxMessageLength)
	keyboard := renderKeyboard(response.Keyboard)

	for i, chunk := range chunks {
		var markup *InlineKeyboardMarkup
		if i == len(chunks)-1 {
			markup = keyboard
		}
		if _, err := t.client.SendMessage(ctx, chatID, chunk, markup); err != nil {
			return err
		}
	}
	return nil
}

// renderKeyboard converts core buttons into Telegram inline keyboard markup.
func renderKeyboard(rows [][]bot.Button) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &InlineKeyboardMarkup{}
	for _, row := range rows {
		var line []InlineKeyboardButton
		for _, button := range row {
			line = append(line, InlineKeyboardButton{
				Text:         button.Text,
				CallbackData: button.Data,
				URL:          button.URL,
			})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup
}

// chunkContent splits text into chunks of at most maxLen characters,
// preferring to break at newline boundaries.
func chunkContent(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			chunks = append(chunks, remaining)
			break
		}

		breakPoint := maxLen
		if idx := strings.LastIndex(remaining[:maxLen], "\n"); idx > maxLen/2 {
			breakPoint = idx + 1
		}

		chunks = append(chunks, strings.TrimSpace(remaining[:breakPoint]))
		remaining = strings.TrimSpace(remaining[breakPoint:])
	}

	return chunks
}
