// File: internal/notification/telegram_test.go
package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blockpulse/watchlist-monitor/internal/models"
)

func baseAlert() *models.TransactionAlert {
	return &models.TransactionAlert{
		ID:              "alert-1",
		UserID:          "user-1",
		WalletAddress:   "0xabc1234567890123456789012345678901234567",
		Chain:           models.ChainEthereum,
		TransactionHash: "0xdeadbeefcafe",
		Type:            models.AlertReceived,
		FromAddress:     "0x1111111111111111111111111111111111111111",
		ToAddress:       "0xabc1234567890123456789012345678901234567",
		Value:           "1.5",
		CreatedAt:       time.Now(),
	}
}

func TestFormatTransactionMessageNative(t *testing.T) {
	msg := FormatTransactionMessage(baseAlert())

	assert.Contains(t, msg, "📥 *Incoming Transaction*")
	assert.Contains(t, msg, "1.5 ETH", "Native transfers use the chain symbol")
	assert.Contains(t, msg, "ETHEREUM")
	assert.Contains(t, msg, "0xabc123...234567", "Addresses are abbreviated")
	assert.Contains(t, msg, "https://etherscan.io/tx/0xdeadbeefcafe")
}

func TestFormatTransactionMessageToken(t *testing.T) {
	symbol := "USDT"
	amount := "250.75"

	alert := baseAlert()
	alert.Type = models.AlertSent
	alert.Chain = models.ChainBSC
	alert.TokenSymbol = &symbol
	alert.TokenAmount = &amount

	msg := FormatTransactionMessage(alert)

	assert.Contains(t, msg, "📤 *Outgoing Transaction*")
	assert.Contains(t, msg, "250.75 USDT", "Token transfers show token amount, not native value")
	assert.NotContains(t, msg, "1.5 BNB")
	assert.Contains(t, msg, "https://bscscan.com/tx/")
}

func TestFormatTransactionMessageContract(t *testing.T) {
	alert := baseAlert()
	alert.Type = models.AlertContract

	msg := FormatTransactionMessage(alert)
	assert.True(t, strings.HasPrefix(msg, "📄 *Contract Interaction*"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xabc123...234567", shortAddress("0xabc1234567890123456789012345678901234567"))
	assert.Equal(t, "0xshort", shortAddress("0xshort"), "Short addresses pass through")
}
