// File: internal/notification/telegram.go
package notification

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// TelegramChannel delivers alerts via the Telegram Bot API
type TelegramChannel struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a Telegram channel. The constructor validates
// the token against the Bot API (getMe).
func NewTelegramChannel(botToken string) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeNotification, "Failed to initialize Telegram bot", err.Error())
	}
	return &TelegramChannel{bot: bot}, nil
}

// Name returns the channel identifier
func (t *TelegramChannel) Name() string {
	return "telegram"
}

// Send delivers one transaction alert to the user's linked chat. Users
// without a linked chat are skipped, not failed.
func (t *TelegramChannel) Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error {
	if !user.TelegramLinked() {
		return ErrSkipped
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, FormatTransactionMessage(alert))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := t.bot.Send(msg); err != nil {
		return utils.NewAppError(utils.ErrCodeNotification, "Failed to send Telegram message", err.Error())
	}

	return nil
}

// FormatTransactionMessage renders the Markdown alert message
func FormatTransactionMessage(alert *models.TransactionAlert) string {
	info := alert.Chain.Info()

	var header, amount string
	switch alert.Type {
	case models.AlertSent:
		header = "📤 *Outgoing Transaction*"
	case models.AlertReceived:
		header = "📥 *Incoming Transaction*"
	default:
		header = "📄 *Contract Interaction*"
	}

	if alert.TokenSymbol != nil && alert.TokenAmount != nil {
		amount = fmt.Sprintf("%s %s", *alert.TokenAmount, *alert.TokenSymbol)
	} else {
		amount = fmt.Sprintf("%s %s", alert.Value, info.Symbol)
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(fmt.Sprintf("💰 *Amount:* %s\n", amount))
	b.WriteString(fmt.Sprintf("⛓️ *Chain:* %s\n", strings.ToUpper(info.Name)))
	b.WriteString(fmt.Sprintf("👛 *Wallet:* `%s`\n\n", shortAddress(alert.WalletAddress)))
	b.WriteString(fmt.Sprintf("📤 *From:* `%s`\n", shortAddress(alert.FromAddress)))
	b.WriteString(fmt.Sprintf("📥 *To:* `%s`\n\n", shortAddress(alert.ToAddress)))
	b.WriteString(fmt.Sprintf("🔗 [View Transaction](%s)", alert.Chain.TxURL(alert.TransactionHash)))

	return b.String()
}

// shortAddress abbreviates an address to its first 8 and last 6 characters
func shortAddress(address string) string {
	if len(address) <= 14 {
		return address
	}
	return address[:8] + "..." + address[len(address)-6:]
}
