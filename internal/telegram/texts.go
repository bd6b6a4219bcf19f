package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/govalues/decimal"

	"github.com/digkill/DigiStoreBot/internal/models"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func kindTitle(kind models.OrderKind) string {
	switch kind {
	case models.KindStars:
		return "⭐ Звёзды"
	case models.KindPremium:
		return "💎 Premium"
	case models.KindExchange:
		return "💱 Обмен"
	}
	return string(kind)
}

func statusTitle(status models.OrderStatus) string {
	switch status {
	case models.StatusPending:
		return "ожидает выбора оплаты"
	case models.StatusWaitingPayment:
		return "ожидает оплаты картой"
	case models.StatusWaitingConfirmation:
		return "ожидает проверки оплаты"
	case models.StatusWaitingCrypto:
		return "ожидает оплаты криптой"
	case models.StatusConfirmed:
		return "оплачен, в работе"
	case models.StatusCompleted:
		return "выполнен"
	case models.StatusCancelled:
		return "отменён"
	}
	return string(status)
}

func methodTitle(method models.PaymentMethod) string {
	if method == models.PaymentCrypto {
		return "криптовалюта"
	}
	return "карта"
}

func rub(d decimal.Decimal) string {
	return d.String() + " ₽"
}

func detailsLine(order models.Order) string {
	switch d := order.Details.(type) {
	case models.StarsDetails:
		return fmt.Sprintf("Количество: %d ⭐", d.Quantity)
	case models.PremiumDetails:
		return "Срок: " + d.Period.Title()
	case models.ExchangeDetails:
		return fmt.Sprintf("Обмен: %s → %s $ (курс %s)", rub(d.SourceAmount), d.TargetAmount, d.Rate)
	}
	return ""
}

// orderSummary renders an order for its owner.
func orderSummary(order models.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>Заказ #%d</b> — %s\n", order.ID, kindTitle(order.Kind))
	if order.Recipient != "" {
		fmt.Fprintf(&sb, "Получатель: @%s\n", escape(order.Recipient))
	}
	if line := detailsLine(order); line != "" {
		sb.WriteString(line + "\n")
	}
	fmt.Fprintf(&sb, "Сумма: <b>%s</b>\n", rub(order.Amount))
	fmt.Fprintf(&sb, "Статус: %s %s", order.Status.Emoji(), statusTitle(order.Status))
	return sb.String()
}

// operatorCard renders an order with the fields operators work with.
func operatorCard(order models.Order) string {
	var sb strings.Builder
	sb.WriteString(orderSummary(order))
	fmt.Fprintf(&sb, "\nПокупатель: <code>%d</code>", order.UserID)
	fmt.Fprintf(&sb, "\nОплата: %s", methodTitle(order.PaymentMethod))
	if order.InvoiceID != "" {
		fmt.Fprintf(&sb, "\nСчёт: <code>%s</code>", escape(order.InvoiceID))
	}
	if order.Proof.ArchiveURL != "" {
		fmt.Fprintf(&sb, "\nКопия чека: %s", escape(order.Proof.ArchiveURL))
	}
	if !order.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "\nСоздан: %s", order.CreatedAt.Format("02.01.2006 15:04"))
	}
	return sb.String()
}

// dumpLine is one line of the raw /dbcheck listing.
func dumpLine(order models.Order) string {
	details, _ := models.EncodeDetails(order.Details, order.Proof)
	return fmt.Sprintf("#%d u=%d %s %s %s %s %s inv=%s %s %s",
		order.ID, order.UserID, order.Kind, order.Recipient, order.Amount,
		order.PaymentMethod, order.Status, order.InvoiceID,
		order.CreatedAt.Format("2006-01-02 15:04"), details)
}

// chunkLines joins lines into messages no longer than limit bytes.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks []string
		sb     strings.Builder
	)
	for _, line := range lines {
		if len(line) > limit {
			line = line[:limit]
		}
		if sb.Len() > 0 && sb.Len()+len(line)+1 > limit {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

func statsText(s *models.Stats) string {
	paid := s.OrdersByStatus[models.StatusConfirmed] + s.OrdersByStatus[models.StatusCompleted]
	avg := decimal.Zero
	if paid > 0 {
		if n, err := decimal.New(int64(paid), 0); err == nil {
			if q, err := s.Revenue.Quo(n); err == nil {
				avg = q.Round(2).Pad(2)
			}
		}
	}
	conversion := 0.0
	if s.Orders > 0 {
		conversion = float64(paid) * 100 / float64(s.Orders)
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Статистика бота</b>\n\n")
	fmt.Fprintf(&sb, "👥 Пользователей: %d\n", s.Users)
	fmt.Fprintf(&sb, "🟢 Активных за 24 ч: %d\n", s.ActiveUsers24h)
	fmt.Fprintf(&sb, "🆕 Новых сегодня: %d\n\n", s.UsersToday)
	fmt.Fprintf(&sb, "🧾 Заказов: %d (сегодня %d)\n", s.Orders, s.OrdersToday)
	fmt.Fprintf(&sb, "⏳ Активных заказов: %d\n", s.ActiveOrders)
	fmt.Fprintf(&sb, "💰 Выручка: %s (сегодня %s)\n", rub(s.Revenue), rub(s.RevenueToday))
	fmt.Fprintf(&sb, "🧮 Средний чек: %s\n", rub(avg))
	fmt.Fprintf(&sb, "📈 Конверсия в оплату: %.1f%%", conversion)
	return sb.String()
}

func orderStatsText(s *models.Stats) string {
	var sb strings.Builder
	sb.WriteString("📦 <b>Заказы по статусам</b>\n")
	for _, status := range models.AllStatuses {
		fmt.Fprintf(&sb, "\n%s %s: %d", status.Emoji(), statusTitle(status), s.OrdersByStatus[status])
	}
	return sb.String()
}
