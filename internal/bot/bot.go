// Package bot is the Telegram front end: stock lookups, low-stock lists and
// spreadsheet stocktakes from a chat.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/stocktake"
)

const maxUpload = 10 << 20

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	api       botAPI
	log       *slog.Logger
	ledger    *inventory.Ledger
	stocktake *stocktake.Service
	tenancy   *tenancy.Service
	single    *tenancy.Scope
	adminChat int64
	download  func(ctx context.Context, fileID string) ([]byte, error)
	now       func() time.Time
}

// Options configure who the bot answers. With Single set only adminChat is
// served, acting as that scope; otherwise every sender is resolved through
// tenancy as user "tg:<telegram id>".
type Options struct {
	Tenancy   *tenancy.Service
	Single    *tenancy.Scope
	AdminChat int64
}

func New(api *tgbotapi.BotAPI, log *slog.Logger, ledger *inventory.Ledger, st *stocktake.Service, opt Options) *Bot {
	return newBot(api, log, ledger, st, opt)
}

func newBot(api botAPI, log *slog.Logger, ledger *inventory.Ledger, st *stocktake.Service, opt Options) *Bot {
	b := &Bot{
		api:       api,
		log:       log,
		ledger:    ledger,
		stocktake: st,
		tenancy:   opt.Tenancy,
		single:    opt.Single,
		adminChat: opt.AdminChat,
		now:       time.Now,
	}
	b.download = b.downloadTelegramFile
	return b
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// scope maps the sender of msg to a tenant scope.
func (b *Bot) scope(ctx context.Context, msg *tgbotapi.Message) (tenancy.Scope, error) {
	if b.single != nil {
		if msg.Chat == nil || msg.Chat.ID != b.adminChat {
			return tenancy.Scope{}, apperr.Forbidden("chat is not the admin chat")
		}
		return *b.single, nil
	}
	if msg.From == nil {
		return tenancy.Scope{}, apperr.Forbidden("anonymous sender")
	}
	sc, err := b.tenancy.Resolve(ctx, "tg:"+strconv.FormatInt(msg.From.ID, 10), nil)
	if apperr.IsNotFound(err) {
		return tenancy.Scope{}, apperr.Forbidden("telegram user %d has no tenant", msg.From.ID)
	}
	return sc, err
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	sc, err := b.scope(ctx, msg)
	if err != nil {
		b.log.Info("message ignored", "chat_id", msg.Chat.ID, "err", err)
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, sc, msg.Chat.ID, msg.Command(), msg.CommandArguments())
	case msg.Document != nil:
		b.handleStocktakeUpload(ctx, sc, msg.Chat.ID, msg.Document)
	default:
		if cmd, ok := buttonCommands[msg.Text]; ok {
			b.handleCommand(ctx, sc, msg.Chat.ID, cmd, "")
			return
		}
		b.reply(msg.Chat.ID, helpText)
	}
}

// failText turns an error into a chat reply. Storage failures are logged
// and shown generically.
func (b *Bot) failText(err error) string {
	if apperr.KindOf(err) == apperr.KindPersistence {
		b.log.Error("bot request failed", "err", err)
		return "Something went wrong, try again later."
	}
	return "Error: " + err.Error()
}

// downloadTelegramFile fetches a file by its FileID through the Bot API.
func (b *Bot) downloadTelegramFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpload))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
