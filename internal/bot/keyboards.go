package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnStock     = "📦 Stock"
	btnLow       = "⚠️ Low stock"
	btnRecent    = "🧾 Recent"
	btnStocktake = "📋 Stocktake sheet"
)

var buttonCommands = map[string]string{
	btnStock:     "stock",
	btnLow:       "low",
	btnRecent:    "recent",
	btnStocktake: "stocktake",
}

const helpText = `Commands:
/stock [text] - on-hand per item, optionally filtered by sku or name
/low - items below their minimum
/recent - latest movements
/stocktake - count sheet; send it back filled in to apply the counts`

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStock),
			tgbotapi.NewKeyboardButton(btnLow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRecent),
			tgbotapi.NewKeyboardButton(btnStocktake),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
