package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/service"
)

// Callback data. Parameterised actions carry ":<value>" suffixes.
const (
	cbMenu         = "menu"
	cbCheckSub     = "check_sub"
	cbBuyStars     = "buy_stars"
	cbBuyPremium   = "buy_premium"
	cbExchange     = "exchange"
	cbCalculator   = "calc"
	cbProfile      = "profile"
	cbInfo         = "info"
	cbPremium      = "premium"      // premium:<period>
	cbPayCard      = "pay_card"     // pay_card:<order>
	cbPayCrypto    = "pay_crypto"   // pay_crypto:<order>
	cbPaid         = "paid"         // paid:<order>
	cbCancelProof  = "cancel_proof" // cancel_proof:<order>
	cbCheckPayment = "check_pay"    // check_pay:<order>

	cbAdminPanel      = "adm_panel"
	cbAdminActive     = "adm_active"
	cbAdminStats      = "adm_stats"
	cbAdminOrderStats = "adm_ostats"
	cbAdminOrder      = "adm_order" // adm_order:<order>
	cbAdminAsk        = "adm_ask"   // adm_ask:<action>:<order>
	cbAdminGo         = "adm_go"    // adm_go:<nonce>
	cbAdminAbort      = "adm_abort"
)

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func withID(prefix string, id int64) string {
	return fmt.Sprintf("%s:%d", prefix, id)
}

func backToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)),
	)
}

func (b *Bot) mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(button("⭐ Купить звёзды", cbBuyStars)),
		tgbotapi.NewInlineKeyboardRow(button("💎 Купить Premium", cbBuyPremium)),
		tgbotapi.NewInlineKeyboardRow(button("💱 Обмен RUB → USD", cbExchange)),
		tgbotapi.NewInlineKeyboardRow(
			button("🧮 Калькулятор", cbCalculator),
			button("👤 Профиль", cbProfile),
		),
		tgbotapi.NewInlineKeyboardRow(button("ℹ️ Информация", cbInfo)),
	}
	if b.cfg.SupportUsername != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🆘 Поддержка", "https://t.me/"+b.cfg.SupportUsername),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) subscriptionKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if link := b.cfg.SubscriptionChannelLink(); link != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("📢 Подписаться", link)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("✅ Я подписался", cbCheckSub)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) premiumKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, period := range models.PremiumPeriods {
		price, err := b.catalog.PremiumPrice(period)
		if err != nil {
			continue
		}
		label := fmt.Sprintf("%s — %s", period.Title(), rub(price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, cbPremium+":"+string(period))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("⬅️ Назад", cbMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) paymentKeyboard(order *models.Order) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(button("💳 Картой", withID(cbPayCard, order.ID))),
	}
	if b.orders.CryptoEnabled() && order.Kind != models.KindExchange {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🪙 Криптовалютой", withID(cbPayCrypto, order.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cardPaymentKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("✅ Я оплатил", withID(cbPaid, orderID))),
		tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)),
	)
}

func proofKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("❌ Отмена", withID(cbCancelProof, orderID))),
	)
}

func cryptoKeyboard(orderID int64, payURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🪙 Оплатить", payURL)),
		tgbotapi.NewInlineKeyboardRow(button("🔄 Проверить оплату", withID(cbCheckPayment, orderID))),
		tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)),
	)
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("📋 Активные заказы", cbAdminActive)),
		tgbotapi.NewInlineKeyboardRow(button("📊 Статистика бота", cbAdminStats)),
		tgbotapi.NewInlineKeyboardRow(button("📦 Статистика заказов", cbAdminOrderStats)),
	)
}

func adminBackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("⬅️ Панель", cbAdminPanel)),
	)
}

func askData(action service.OperatorAction, orderID int64) string {
	return fmt.Sprintf("%s:%s:%d", cbAdminAsk, action, orderID)
}

// operatorOrderKeyboard offers only the actions the order status allows.
func operatorOrderKeyboard(order models.Order) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if order.Status == models.StatusWaitingCrypto {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🔄 Проверить счёт", askData(service.ActionCheckCrypto, order.ID))))
	}
	if models.CanTransition(order.Status, models.StatusConfirmed) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("✅ Подтвердить оплату", askData(service.ActionConfirm, order.ID))))
	}
	if models.CanTransition(order.Status, models.StatusCompleted) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📦 Выполнен", askData(service.ActionDeliver, order.ID))))
	}
	if models.CanTransition(order.Status, models.StatusCancelled) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("❌ Отклонить", askData(service.ActionReject, order.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("⬅️ К списку", cbAdminActive)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard(nonce string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Да", cbAdminGo+":"+nonce),
			button("↩️ Нет", cbAdminAbort),
		),
	)
}
