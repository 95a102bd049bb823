package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/alekspetrov/ticketpilot/internal/bot"
)

func TestChunkContent_ShortTextSingleChunk(t *testing.T) {
	chunks := chunkContent("hello", MaxMessageLength)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}

func TestChunkContent_SplitsAtLimit(t *testing.T) {
	text := strings.Repeat("a", MaxMessageLength+100)
	chunks := chunkContent(text, MaxMessageLength)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > MaxMessageLength {
			t.Errorf("chunk %d exceeds limit: %d", i, len(chunk))
		}
	}

	joined := strings.Join(chunks, "")
	if len(joined) != len(text) {
		t.Errorf("text lost in chunking: %d vs %d", len(joined), len(text))
	}
}

func TestChunkContent_PrefersNewlineBreaks(t *testing.T) {
	line := strings.Repeat("x", 80)
	var sb strings.Builder
	for sb.Len() < 300 {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	chunks := chunkContent(sb.String(), 200)
	for i, chunk := range chunks {
		if len(chunk) > 200 {
			t.Fatalf("chunk %d exceeds limit", i)
		}
		if strings.Contains(chunk, "\n") && !strings.HasSuffix(chunk, line) {
			continue
		}
	}
	// Breaking at newlines means no chunk starts mid-line.
	for i, chunk := range chunks {
		if i > 0 && len(chunk) > 0 && chunk[0] != 'x' {
			t.Errorf("chunk %d starts with %q", i, chunk[0])
		}
	}
}

func TestRenderKeyboard(t *testing.T) {
	if renderKeyboard(nil) != nil {
		t.Error("empty keyboard should render as nil markup")
	}

	markup := renderKeyboard([][]bot.Button{
		{{Text: "Yes", Data: "yes"}, {Text: "No", Data: "no"}},
		{{Text: "Open", URL: "https://example.com"}},
	})
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(markup.InlineKeyboard))
	}
	if markup.InlineKeyboard[0][1].CallbackData != "no" {
		t.Errorf("callback data lost: %+v", markup.InlineKeyboard[0][1])
	}
	if markup.InlineKeyboard[1][0].URL != "https://example.com" {
		t.Errorf("url button lost: %+v", markup.InlineKeyboard[1][0])
	}
}

func TestToEvent_Message(t *testing.T) {
	transport := NewTransport(NewClient("test-token"), nil, 30)

	event := transport.toEvent(context.Background(), &Update{
		UpdateID: 1,
		Message: &Message{
			Text: "/help",
			From: &User{ID: 42, Username: "alice", FirstName: "Alice"},
			Chat: &Chat{ID: 4242},
		},
	})
	if event == nil {
		t.Fatal("expected event")
	}
	if event.UserID != "42" || event.ChatID != "4242" {
		t.Errorf("IDs mangled: %+v", event)
	}
	if event.Text != "/help" || event.IsCallback {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestToEvent_IgnoresEmptyAndPartialUpdates(t *testing.T) {
	transport := NewTransport(NewClient("test-token"), nil, 30)

	updates := []*Update{
		{UpdateID: 1},
		{UpdateID: 2, Message: &Message{Text: "   ", From: &User{ID: 1}, Chat: &Chat{ID: 1}}},
		{UpdateID: 3, Message: &Message{Text: "hi"}},
	}
	for _, update := range updates {
		if event := transport.toEvent(context.Background(), update); event != nil {
			t.Errorf("update %d should be dropped, got %+v", update.UpdateID, event)
		}
	}
}
