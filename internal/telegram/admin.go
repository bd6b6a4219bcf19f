package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/service"
)

const (
	activeOrdersLimit = 20
	dumpChunkLimit    = 4000
)

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !b.orders.IsOperator(msg.From.ID) {
		b.sendText(msg.Chat.ID, "⛔ Доступ запрещен")
		return
	}
	_ = b.conv.Cancel(ctx, msg.From.ID)
	b.show(msg.Chat.ID, 0, "🛠 <b>Панель оператора</b>", adminPanelKeyboard())
}

// handleDBCheck dumps every order. Non-operators get no reply.
func (b *Bot) handleDBCheck(ctx context.Context, msg *tgbotapi.Message) {
	if !b.orders.IsOperator(msg.From.ID) {
		return
	}
	orders, err := b.orders.ListAll(ctx)
	if err != nil {
		b.logger.Error("dbcheck", zap.Error(err))
		b.sendText(msg.Chat.ID, "Не удалось прочитать заказы: "+escape(err.Error()))
		return
	}
	if len(orders) == 0 {
		b.sendText(msg.Chat.ID, "Заказов нет.")
		return
	}
	lines := make([]string, 0, len(orders))
	for _, order := range orders {
		lines = append(lines, dumpLine(order))
	}
	for _, chunk := range chunkLines(lines, dumpChunkLimit) {
		m := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if _, err := b.api.Send(m); err != nil {
			b.logger.Error("send dump chunk", zap.Error(err))
			return
		}
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, action, arg string) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	operatorID := cb.From.ID
	if !b.orders.IsOperator(operatorID) {
		b.answerAlert(cb.ID, "⛔ Доступ запрещен")
		return
	}
	b.answer(cb.ID, "")

	switch action {
	case cbAdminPanel:
		b.show(chatID, messageID, "🛠 <b>Панель оператора</b>", adminPanelKeyboard())
	case cbAdminActive:
		b.showActiveOrders(ctx, chatID, messageID)
	case cbAdminStats, cbAdminOrderStats:
		stats, err := b.orders.Stats(ctx)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		text := statsText(stats)
		if action == cbAdminOrderStats {
			text = orderStatsText(stats)
		}
		b.show(chatID, messageID, text, adminBackKeyboard())
	case cbAdminOrder:
		orderID, err := parseID(arg)
		if err != nil {
			return
		}
		order, err := b.orders.Get(ctx, orderID)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		if order.Proof.FileID != "" {
			b.sendProof(chatID, *order)
			return
		}
		b.show(chatID, messageID, operatorCard(*order), operatorOrderKeyboard(*order))
	case cbAdminAsk:
		op, rawID, _ := strings.Cut(arg, ":")
		orderID, err := parseID(rawID)
		if err != nil {
			return
		}
		b.proposeAction(ctx, chatID, messageID, operatorID, service.OperatorAction(op), orderID)
	case cbAdminGo:
		b.executeAction(ctx, chatID, messageID, operatorID, arg)
	case cbAdminAbort:
		if err := b.gate.Abort(ctx, operatorID); err != nil {
			b.logger.Warn("abort operator action", zap.Error(err))
		}
		b.show(chatID, messageID, "Действие отменено.", adminBackKeyboard())
	}
}

func (b *Bot) showActiveOrders(ctx context.Context, chatID int64, messageID int) {
	orders, err := b.orders.ListActive(ctx, activeOrdersLimit)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(orders) == 0 {
		b.show(chatID, messageID, "Активных заказов нет.", adminBackKeyboard())
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(orders)+1)
	for _, order := range orders {
		label := fmt.Sprintf("%s #%d %s %s", order.Status.Emoji(), order.ID, kindTitle(order.Kind), rub(order.Amount))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, withID(cbAdminOrder, order.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("⬅️ Панель", cbAdminPanel)))
	text := fmt.Sprintf("📋 <b>Активные заказы</b> (%d)", len(orders))
	b.show(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// sendProof shows the order card as the caption of its payment screenshot.
func (b *Bot) sendProof(chatID int64, order models.Order) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(order.Proof.FileID))
	photo.Caption = operatorCard(order)
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyMarkup = operatorOrderKeyboard(order)
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Warn("send proof photo", zap.Int64("order_id", order.ID), zap.Error(err))
		b.show(chatID, 0, operatorCard(order), operatorOrderKeyboard(order))
	}
}

func actionQuestion(action service.OperatorAction, orderID int64) string {
	switch action {
	case service.ActionConfirm:
		return fmt.Sprintf("Подтвердить оплату заказа #%d?", orderID)
	case service.ActionReject:
		return fmt.Sprintf("Отклонить заказ #%d?", orderID)
	case service.ActionDeliver:
		return fmt.Sprintf("Отметить заказ #%d выполненным?", orderID)
	case service.ActionCheckCrypto:
		return fmt.Sprintf("Проверить крипто-счёт заказа #%d?", orderID)
	}
	return fmt.Sprintf("Выполнить действие для заказа #%d?", orderID)
}

func (b *Bot) proposeAction(ctx context.Context, chatID int64, messageID int, operatorID int64, action service.OperatorAction, orderID int64) {
	pending, order, err := b.gate.Propose(ctx, operatorID, action, orderID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	text := operatorCard(*order) + "\n\n❓ " + actionQuestion(pending.Action, order.ID)
	b.show(chatID, messageID, text, confirmKeyboard(pending.Nonce))
}

func (b *Bot) executeAction(ctx context.Context, chatID int64, messageID int, operatorID int64, nonce string) {
	res, err := b.gate.Execute(ctx, operatorID, nonce)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingAction) {
			b.show(chatID, messageID, "Подтверждение устарело. Выберите действие заново.", adminBackKeyboard())
			return
		}
		b.replyError(chatID, err)
		return
	}

	var outcome string
	switch res.Action {
	case service.ActionConfirm:
		outcome = "✅ Оплата подтверждена."
	case service.ActionReject:
		outcome = "❌ Заказ отклонён."
	case service.ActionDeliver:
		outcome = "📦 Заказ выполнен."
	case service.ActionCheckCrypto:
		switch res.Poll {
		case service.PollPaid:
			outcome = "✅ Счёт оплачен."
		case service.PollExpired:
			outcome = "⌛ Счёт истёк, заказ отменён."
		default:
			outcome = "⏳ Счёт ещё не оплачен."
		}
	}
	b.show(chatID, messageID, operatorCard(*res.Order)+"\n\n"+outcome, operatorOrderKeyboard(*res.Order))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
