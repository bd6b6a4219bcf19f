package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/service"
)

// Notifier delivers order events to buyers and operators.
type Notifier struct {
	api         API
	operatorIDs []int64
	logger      *zap.Logger
}

func NewNotifier(api API, operatorIDs []int64, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, operatorIDs: operatorIDs, logger: logger}
}

func (n *Notifier) Notify(_ context.Context, event service.Event) error {
	order := event.Order
	switch event.Kind {
	case service.EventProofSubmitted:
		return n.toOperators(func(chatID int64) tgbotapi.Chattable {
			caption := "📸 <b>Новый чек</b>\n\n" + operatorCard(order)
			markup := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					button("✅ Подтвердить", askData(service.ActionConfirm, order.ID)),
					button("❌ Отклонить", askData(service.ActionReject, order.ID)),
				),
			)
			if order.Proof.FileID == "" {
				msg := tgbotapi.NewMessage(chatID, caption)
				msg.ParseMode = tgbotapi.ModeHTML
				msg.ReplyMarkup = markup
				return msg
			}
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(order.Proof.FileID))
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeHTML
			photo.ReplyMarkup = markup
			return photo
		})
	case service.EventConfirmed:
		return n.toUser(order.UserID, fmt.Sprintf("✅ Оплата заказа #%d подтверждена. Заказ передан в работу.", order.ID))
	case service.EventRejected:
		return n.toUser(order.UserID, fmt.Sprintf("❌ Заказ #%d отклонён. Если это ошибка, напишите в поддержку.", order.ID))
	case service.EventDelivered:
		return n.toUser(order.UserID, fmt.Sprintf("📦 Заказ #%d выполнен. Спасибо за покупку!", order.ID))
	case service.EventCryptoPaid:
		err := n.toUser(order.UserID, fmt.Sprintf("✅ Крипто-оплата заказа #%d получена. Заказ передан в работу.", order.ID))
		return errors.Join(err, n.toOperators(func(chatID int64) tgbotapi.Chattable {
			msg := tgbotapi.NewMessage(chatID, "🪙 <b>Оплачен крипто-счёт</b>\n\n"+operatorCard(order))
			msg.ParseMode = tgbotapi.ModeHTML
			msg.ReplyMarkup = operatorOrderKeyboard(order)
			return msg
		}))
	case service.EventCryptoExpired:
		return n.toUser(order.UserID, fmt.Sprintf("⌛ Счёт по заказу #%d истёк, заказ отменён. Оформите новый заказ в меню.", order.ID))
	}
	return nil
}

func (n *Notifier) toUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = backToMenuKeyboard()
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("notify user %d: %w", userID, err)
	}
	return nil
}

func (n *Notifier) toOperators(build func(chatID int64) tgbotapi.Chattable) error {
	var errs []error
	for _, id := range n.operatorIDs {
		if _, err := n.api.Send(build(id)); err != nil {
			errs = append(errs, fmt.Errorf("notify operator %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Broadcast sends text to every chat in userIDs and reports how many
// deliveries succeeded. Delivery stops early when ctx is done.
func (n *Notifier) Broadcast(ctx context.Context, userIDs []int64, text string) (int, error) {
	sent := 0
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.api.Send(msg); err != nil {
			n.logger.Debug("broadcast delivery failed", zap.Int64("user_id", id), zap.Error(err))
			continue
		}
		sent++
	}
	n.logger.Info("broadcast finished", zap.Int("sent", sent), zap.Int("total", len(userIDs)))
	return sent, nil
}
