package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegramSendsToAdminChat(t *testing.T) {
	f := &fakeSender{}
	n := &Telegram{api: f, chatID: 42}

	require.NoError(t, n.Notify(context.Background(), "low stock"))
	require.Len(t, f.sent, 1)
	msg, ok := f.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "low stock", msg.Text)
}

func TestTelegramSendError(t *testing.T) {
	n := &Telegram{api: &fakeSender{err: errors.New("bad gateway")}, chatID: 1}
	err := n.Notify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestTelegramCancelledContext(t *testing.T) {
	f := &fakeSender{}
	n := &Telegram{api: f, chatID: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Notify(ctx, "x"), context.Canceled)
	assert.Empty(t, f.sent)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, n.Notify(context.Background(), "negative stock"))
	assert.Contains(t, buf.String(), "negative stock")
}
