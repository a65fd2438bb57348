package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/export"
)

const (
	maxLines     = 50
	recentLimit  = 10
	stocktakeRef = "telegram stocktake"
)

func (b *Bot) handleCommand(ctx context.Context, sc tenancy.Scope, chatID int64, cmd, args string) {
	switch cmd {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, helpText)
		m.ReplyMarkup = mainKeyboard()
		b.send(m)
	case "stock":
		b.sendStock(ctx, sc, chatID, strings.TrimSpace(args), false)
	case "low":
		b.sendStock(ctx, sc, chatID, "", true)
	case "recent":
		b.sendRecent(ctx, sc, chatID)
	case "stocktake":
		b.sendStocktakeSheet(ctx, sc, chatID)
	default:
		b.reply(chatID, "Unknown command.\n\n"+helpText)
	}
}

func (b *Bot) sendStock(ctx context.Context, sc tenancy.Scope, chatID int64, query string, lowOnly bool) {
	lines, err := b.ledger.StockReport(ctx, sc)
	if err != nil {
		b.reply(chatID, b.failText(err))
		return
	}

	q := strings.ToLower(query)
	var sb strings.Builder
	shown, matched := 0, 0
	for _, l := range lines {
		if lowOnly && !l.Low {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(l.SKU), q) && !strings.Contains(strings.ToLower(l.Name), q) {
			continue
		}
		matched++
		if shown == maxLines {
			continue
		}
		shown++
		mark := ""
		if l.Low {
			mark = " ⚠️"
		}
		fmt.Fprintf(&sb, "%s (%s): %s %s%s\n", l.Name, l.SKU, l.OnHand, l.Unit, mark)
	}

	switch {
	case matched == 0 && lowOnly:
		b.reply(chatID, "Nothing is below its minimum.")
		return
	case matched == 0:
		b.reply(chatID, "No items found.")
		return
	case matched > shown:
		fmt.Fprintf(&sb, "... and %d more", matched-shown)
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) sendRecent(ctx context.Context, sc tenancy.Scope, chatID int64) {
	ms, err := b.ledger.ListMovements(ctx, sc, inventory.MovementFilter{Limit: recentLimit})
	if err != nil {
		b.reply(chatID, b.failText(err))
		return
	}
	if len(ms) == 0 {
		b.reply(chatID, "No movements yet.")
		return
	}
	var sb strings.Builder
	for _, m := range ms {
		fmt.Fprintf(&sb, "%s %s %s %s %s", m.EffectiveAt.Format("02.01 15:04"), m.Kind, m.Qty, m.Unit, m.SKU)
		if m.Ref != "" {
			fmt.Fprintf(&sb, " [%s]", m.Ref)
		}
		sb.WriteByte('\n')
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) sendStocktakeSheet(ctx context.Context, sc tenancy.Scope, chatID int64) {
	var buf bytes.Buffer
	if err := b.stocktake.Export(ctx, sc, &buf); err != nil {
		b.reply(chatID, b.failText(err))
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  export.FileName("stocktake", "xlsx", b.now()),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "Fill in the \"counted\" column and send the file back."
	b.send(doc)
}

// handleStocktakeUpload applies a filled count sheet sent as a document.
func (b *Bot) handleStocktakeUpload(ctx context.Context, sc tenancy.Scope, chatID int64, d *tgbotapi.Document) {
	if !strings.HasSuffix(strings.ToLower(d.FileName), ".xlsx") {
		b.reply(chatID, "Send the stocktake sheet as an .xlsx file.")
		return
	}
	if d.FileSize > maxUpload {
		b.reply(chatID, "The file is too large.")
		return
	}
	data, err := b.download(ctx, d.FileID)
	if err != nil {
		b.log.Error("download stocktake", "file_id", d.FileID, "err", err)
		b.reply(chatID, "Could not download the file, try again.")
		return
	}

	sum, err := b.stocktake.Import(ctx, sc, bytes.NewReader(data), stocktakeRef)
	if err != nil {
		b.reply(chatID, b.failText(err)+"\nNothing was applied.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Stocktake applied: %d rows, %d adjusted, %d skipped.\nAdded %s, removed %s.",
		sum.Rows, sum.Adjusted, sum.Skipped, sum.Added, sum.Removed))
}
