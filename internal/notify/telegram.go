package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var eventTitles = map[string]string{
	TopUpCreated:        "New top-up request",
	TopUpProofUploaded:  "Top-up proof uploaded, waiting for confirmation",
	TopUpConfirmed:      "Top-up confirmed",
	TopUpRejected:       "Top-up rejected",
	WithdrawalRequested: "New withdrawal request",
	WithdrawalStarted:   "Withdrawal processing",
	WithdrawalCompleted: "Withdrawal completed",
	WithdrawalFailed:    "Withdrawal failed, balance refunded",
}

// TelegramNotifier posts events to the admin chat.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
	if err != nil {
		return nil, fmt.Errorf("can't create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: api, chatID: chatID}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatEvent(event))

	// the bot API takes no context; give the worker back when ctx expires
	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("telegram send %s: %w", event.Kind, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send %s: %w", event.Kind, err)
		}
		return nil
	}
}

func FormatEvent(event Event) string {
	title, ok := eventTitles[event.Kind]
	if !ok {
		title = event.Kind
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\nAmount: ")
	b.WriteString(FormatRupiah(event.Amount))
	if event.Reference != "" {
		b.WriteString("\nRef: ")
		b.WriteString(event.Reference)
	}
	b.WriteString("\nID: ")
	b.WriteString(event.TransactionID)
	b.WriteString("\nUser: ")
	b.WriteString(event.UserID)
	return b.String()
}

// FormatRupiah renders 1500000 as "Rp 1.500.000".
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
