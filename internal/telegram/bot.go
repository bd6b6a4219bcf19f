package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/service"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ProofArchiver keeps a copy of payment screenshots.
type ProofArchiver interface {
	ArchiveProof(ctx context.Context, orderID int64, data []byte, contentType string) (string, error)
}

type Bot struct {
	cfg        config.Config
	api        API
	logger     *zap.Logger
	users      *service.UserService
	orders     *service.OrderService
	conv       *service.ConversationService
	gate       *service.OperatorGate
	catalog    *service.Catalog
	archive    ProofArchiver
	httpClient *http.Client
}

// NewBot builds the bot. archive may be nil.
func NewBot(cfg config.Config, api API, logger *zap.Logger, users *service.UserService, orders *service.OrderService, conv *service.ConversationService, gate *service.OperatorGate, catalog *service.Catalog, archive ProofArchiver) *Bot {
	return &Bot{
		cfg:        cfg,
		api:        api,
		logger:     logger,
		users:      users,
		orders:     orders,
		conv:       conv,
		gate:       gate,
		catalog:    catalog,
		archive:    archive,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// RegisterCommands publishes the command list shown by Telegram clients.
func (b *Bot) RegisterCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Главное меню"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bot started")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// HandleUpdate processes a single update to completion.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 || msg.Document != nil {
		b.handleProof(ctx, msg)
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	if !b.orders.IsOperator(msg.From.ID) && !b.passGate(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "admin":
		b.handleAdminCommand(ctx, msg)
	case "dbcheck":
		b.handleDBCheck(ctx, msg)
	default:
		b.sendText(msg.Chat.ID, "Неизвестная команда. Нажмите /start, чтобы открыть меню.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.conv.Cancel(ctx, msg.From.ID); err != nil {
		b.logger.Warn("reset conversation", zap.Error(err))
	}
	if !b.passGate(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	user, created, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		b.logger.Error("ensure user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		b.sendText(msg.Chat.ID, "Не удалось загрузить профиль, попробуйте позже.")
		return
	}
	if created {
		b.logger.Info("user registered", zap.Int64("user_id", user.ID))
	}
	b.sendMenu(msg.Chat.ID, 0, user.FullName)
}

func (b *Bot) sendMenu(chatID int64, messageID int, name string) {
	greeting := "Добро пожаловать!"
	if name != "" {
		greeting = fmt.Sprintf("Привет, %s!", escape(name))
	}
	text := greeting + "\n\nЗдесь можно купить Telegram Stars и Premium или обменять рубли на доллары. Выберите действие:"
	b.show(chatID, messageID, text, b.mainMenuKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		b.answer(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	action, arg, _ := strings.Cut(cb.Data, ":")

	if strings.HasPrefix(action, "adm_") {
		b.handleAdminCallback(ctx, cb, action, arg)
		return
	}

	if action == cbCheckSub {
		b.handleCheckSubscription(ctx, cb)
		return
	}
	if !b.passGate(ctx, cb.From.ID, chatID) {
		b.answer(cb.ID, "Сначала подпишитесь на канал")
		return
	}
	if _, _, err := b.ensureUser(ctx, cb.From); err != nil {
		b.logger.Error("ensure user", zap.Int64("user_id", cb.From.ID), zap.Error(err))
	}
	b.answer(cb.ID, "")

	userID := cb.From.ID
	switch action {
	case cbMenu:
		_ = b.conv.Cancel(ctx, userID)
		b.sendMenu(chatID, messageID, fullName(cb.From))
	case cbBuyStars:
		b.expect(ctx, chatID, messageID, userID, service.Conversation{Expect: service.ExpectStarsRecipient},
			"⭐ <b>Покупка звёзд</b>\n\nВведите юзернейм получателя (например, @username):")
	case cbBuyPremium:
		_ = b.conv.Cancel(ctx, userID)
		b.show(chatID, messageID, "💎 <b>Telegram Premium</b>\n\nВыберите срок подписки:", b.premiumKeyboard())
	case cbPremium:
		b.handlePremiumPeriod(ctx, chatID, messageID, userID, models.PremiumPeriod(arg))
	case cbExchange:
		text := fmt.Sprintf("💱 <b>Обмен RUB → USD</b>\n\nКурс: 1 $ = %s\nМинимальная сумма: 100 ₽\nОплата только картой.\n\nВведите сумму в рублях:", rub(b.catalog.USDRate()))
		b.expect(ctx, chatID, messageID, userID, service.Conversation{Expect: service.ExpectExchangeAmount}, text)
	case cbCalculator:
		b.expect(ctx, chatID, messageID, userID, service.Conversation{Expect: service.ExpectCalculation},
			"🧮 <b>Калькулятор</b>\n\nВведите выражение, например <code>45×34</code> или <code>(100+200)*3</code>:")
	case cbProfile:
		b.handleProfile(ctx, chatID, messageID, cb.From)
	case cbInfo:
		b.show(chatID, messageID, b.infoText(), backToMenuKeyboard())
	case cbPayCard, cbPayCrypto, cbPaid, cbCancelProof, cbCheckPayment:
		orderID, err := parseID(arg)
		if err != nil {
			return
		}
		b.handleOrderCallback(ctx, chatID, messageID, userID, action, orderID)
	default:
		b.logger.Debug("unknown callback", zap.String("data", cb.Data))
	}
}

func (b *Bot) expect(ctx context.Context, chatID int64, messageID int, userID int64, conv service.Conversation, prompt string) {
	if err := b.conv.SetExpectation(ctx, userID, conv); err != nil {
		b.logger.Error("set expectation", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	b.show(chatID, messageID, prompt, backToMenuKeyboard())
}

func (b *Bot) handlePremiumPeriod(ctx context.Context, chatID int64, messageID int, userID int64, period models.PremiumPeriod) {
	price, err := b.catalog.PremiumPrice(period)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	text := fmt.Sprintf("💎 Premium на %s — %s\n\nВведите юзернейм получателя (например, @username):", period.Title(), rub(price))
	b.expect(ctx, chatID, messageID, userID, service.Conversation{
		Expect: service.ExpectPremiumRecipient,
		Period: period,
		Price:  price,
	}, text)
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64, messageID int, from *tgbotapi.User) {
	user, err := b.users.Get(ctx, from.ID)
	if err != nil || user == nil {
		if err != nil {
			b.logger.Error("load profile", zap.Int64("user_id", from.ID), zap.Error(err))
		}
		b.sendText(chatID, "Не удалось загрузить профиль, нажмите /start.")
		return
	}
	count, err := b.orders.CountForUser(ctx, user.ID)
	if err != nil {
		b.logger.Error("count orders", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	handle := "не указан"
	if user.Username != "" {
		handle = "@" + escape(user.Username)
	}
	text := fmt.Sprintf("👤 <b>Профиль</b>\n\nID: <code>%d</code>\nЮзернейм: %s\nЗаказов: %d\nРегистрация: %s",
		user.ID, handle, count, user.CreatedAt.Format("02.01.2006"))
	b.show(chatID, messageID, text, backToMenuKeyboard())
}

func (b *Bot) infoText() string {
	var sb strings.Builder
	sb.WriteString("ℹ️ <b>Информация</b>\n\n")
	fmt.Fprintf(&sb, "⭐ Звёзды: %s за штуку, от %d до %d\n", rub(b.catalog.StarRate()), service.MinStars, service.MaxStars)
	sb.WriteString("💎 Premium: 3, 6 или 12 месяцев\n")
	fmt.Fprintf(&sb, "💱 Обмен: 1 $ = %s, от 100 ₽\n", rub(b.catalog.USDRate()))
	if b.cfg.ReputationURL != "" {
		fmt.Fprintf(&sb, "\n📝 Отзывы: %s", escape(b.cfg.ReputationURL))
	}
	if b.cfg.NewsURL != "" {
		fmt.Fprintf(&sb, "\n📰 Новости: %s", escape(b.cfg.NewsURL))
	}
	if b.cfg.SupportUsername != "" {
		fmt.Fprintf(&sb, "\n🆘 Поддержка: @%s", escape(b.cfg.SupportUsername))
	}
	return sb.String()
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	outcome, err := b.conv.ConsumeInput(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoExpectation) {
			b.sendMenu(chatID, 0, fullName(msg.From))
			return
		}
		b.replyError(chatID, err)
		return
	}

	switch {
	case outcome.Order != nil:
		if _, _, err := b.ensureUser(ctx, msg.From); err != nil {
			b.logger.Warn("refresh user", zap.Error(err))
		}
		text := orderSummary(*outcome.Order) + "\n\nВыберите способ оплаты:"
		b.show(chatID, 0, text, b.paymentKeyboard(outcome.Order))
	case outcome.Calculated:
		text := fmt.Sprintf("🧮 <code>%s</code> = <b>%s</b>\n\nМожно ввести следующее выражение.", escape(outcome.Expression), outcome.Result)
		b.show(chatID, 0, text, backToMenuKeyboard())
	case outcome.Next == service.ExpectStarsQuantity:
		text := fmt.Sprintf("Получатель: @%s\n\nВведите количество звёзд (от %d до %d).\nЦена: %s за звезду.",
			escape(outcome.Recipient), service.MinStars, service.MaxStars, rub(b.catalog.StarRate()))
		b.show(chatID, 0, text, backToMenuKeyboard())
	}
}

func (b *Bot) handleOrderCallback(ctx context.Context, chatID int64, messageID int, userID int64, action string, orderID int64) {
	order, err := b.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	switch action {
	case cbPayCard:
		if _, err := b.orders.SelectPaymentMethod(ctx, order.ID, models.PaymentCard); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.showCardDetails(chatID, messageID, order)
	case cbPayCrypto:
		sel, err := b.orders.SelectPaymentMethod(ctx, order.ID, models.PaymentCrypto)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		text := fmt.Sprintf("%s\n\nК оплате: <b>%s %s</b>\nПосле оплаты нажмите «Проверить оплату».",
			orderSummary(*sel.Order), sel.Invoice.Amount, escape(sel.Invoice.Asset))
		b.show(chatID, messageID, text, cryptoKeyboard(order.ID, sel.Invoice.PayURL))
	case cbPaid:
		if order.Status != models.StatusWaitingPayment && order.Status != models.StatusWaitingConfirmation {
			b.replyError(chatID, service.ErrInvalidTransition)
			return
		}
		b.expectProof(ctx, chatID, messageID, userID, order.ID)
	case cbCancelProof:
		_ = b.conv.Cancel(ctx, userID)
		b.showCardDetails(chatID, messageID, order)
	case cbCheckPayment:
		res, updated, err := b.orders.PollCryptoInvoice(ctx, order.ID)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		switch res {
		case service.PollPaid:
			b.show(chatID, messageID, orderSummary(*updated)+"\n\n✅ Оплата получена! Заказ передан в работу.", backToMenuKeyboard())
		case service.PollExpired:
			b.show(chatID, messageID, orderSummary(*updated)+"\n\n⌛ Счёт истёк, заказ отменён.", backToMenuKeyboard())
		default:
			b.sendText(chatID, "⏳ Оплата пока не поступила. Попробуйте проверить чуть позже.")
		}
	}
}

func (b *Bot) showCardDetails(chatID int64, messageID int, order *models.Order) {
	text := fmt.Sprintf("💳 <b>Оплата картой</b>\n\nЗаказ #%d\nСумма: <b>%s</b>\n\n%s\n\nПосле перевода нажмите «Я оплатил» и пришлите скриншот.",
		order.ID, rub(order.Amount), escape(b.cfg.CardPaymentText))
	b.show(chatID, messageID, text, cardPaymentKeyboard(order.ID))
}

func (b *Bot) expectProof(ctx context.Context, chatID int64, messageID int, userID, orderID int64) {
	if err := b.conv.SetExpectation(ctx, userID, service.Conversation{Expect: service.ExpectPaymentProof, OrderID: orderID}); err != nil {
		b.logger.Error("set proof expectation", zap.Int64("order_id", orderID), zap.Error(err))
		b.sendText(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	b.show(chatID, messageID, fmt.Sprintf("📸 Пришлите скриншот или фото перевода по заказу #%d.", orderID), proofKeyboard(orderID))
}

func (b *Bot) handleProof(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	conv, ok, err := b.conv.Current(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error("load conversation", zap.Error(err))
		b.sendText(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	if !ok || conv.Expect != service.ExpectPaymentProof {
		b.sendText(chatID, "Фото принимаются только как подтверждение оплаты заказа.")
		return
	}

	fileID, contentType := proofFile(msg)
	if fileID == "" {
		b.sendText(chatID, "Пришлите изображение: фото или скриншот перевода.")
		return
	}
	proof := models.PaymentProof{FileID: fileID}
	if b.archive != nil {
		if link, err := b.archiveProof(ctx, conv.OrderID, fileID, contentType); err != nil {
			b.logger.Warn("archive proof", zap.Int64("order_id", conv.OrderID), zap.Error(err))
		} else {
			proof.ArchiveURL = link
		}
	}

	order, err := b.conv.ConsumeProof(ctx, msg.From.ID, proof)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	text := fmt.Sprintf("✅ Чек по заказу #%d получен. Оператор проверит оплату и сообщит о результате.", order.ID)
	b.show(chatID, 0, text, backToMenuKeyboard())
}

// proofFile picks the largest photo size or an image document.
func proofFile(msg *tgbotapi.Message) (string, string) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, "image/jpeg"
	}
	if msg.Document != nil && strings.HasPrefix(strings.ToLower(msg.Document.MimeType), "image/") {
		return msg.Document.FileID, msg.Document.MimeType
	}
	return "", ""
}

func (b *Bot) archiveProof(ctx context.Context, orderID int64, fileID, contentType string) (string, error) {
	link, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("telegram file status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read file body: %w", err)
	}
	return b.archive.ArchiveProof(ctx, orderID, data, contentType)
}

// passGate checks channel membership and shows the subscribe prompt when
// the user is not a member. The gate is open when no channel is configured.
func (b *Bot) passGate(ctx context.Context, userID, chatID int64) bool {
	if b.cfg.SubscriptionChannelID == 0 && b.cfg.SubscriptionChannelUsername == "" {
		return true
	}
	subscribed, err := b.isUserSubscribed(ctx, userID)
	if err != nil {
		b.logger.Warn("check subscription", zap.Int64("user_id", userID), zap.Error(err))
	}
	if subscribed {
		return true
	}
	b.show(chatID, 0, "📢 Чтобы пользоваться ботом, подпишитесь на наш канал и нажмите «Я подписался».", b.subscriptionKeyboard())
	return false
}

func (b *Bot) handleCheckSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	subscribed, err := b.isUserSubscribed(ctx, cb.From.ID)
	if err != nil {
		b.logger.Warn("check subscription", zap.Int64("user_id", cb.From.ID), zap.Error(err))
	}
	if !subscribed {
		b.answerAlert(cb.ID, "Подписка не найдена. Подпишитесь на канал и попробуйте снова.")
		return
	}
	b.answer(cb.ID, "Спасибо за подписку!")
	if _, _, err := b.ensureUser(ctx, cb.From); err != nil {
		b.logger.Error("ensure user", zap.Int64("user_id", cb.From.ID), zap.Error(err))
	}
	b.sendMenu(cb.Message.Chat.ID, cb.Message.MessageID, fullName(cb.From))
}

func (b *Bot) isUserSubscribed(_ context.Context, userID int64) (bool, error) {
	cfg := tgbotapi.ChatConfigWithUser{UserID: userID}
	switch {
	case b.cfg.SubscriptionChannelID != 0:
		cfg.ChatID = b.cfg.SubscriptionChannelID
	case b.cfg.SubscriptionChannelUsername != "":
		cfg.SuperGroupUsername = "@" + b.cfg.SubscriptionChannelUsername
	default:
		return true, nil
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{ChatConfigWithUser: cfg})
	if err != nil {
		return false, err
	}
	switch strings.ToLower(member.Status) {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		return member.IsMember, nil
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, bool, error) {
	return b.users.Ensure(ctx, from.ID, from.UserName, fullName(from))
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// replyError turns a service error into a message for the user.
func (b *Bot) replyError(chatID int64, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		b.sendText(chatID, "⚠️ "+capitalize(verr.Message)+". Попробуйте ещё раз.")
	case errors.Is(err, service.ErrUnauthorized):
		b.sendText(chatID, "⛔ Доступ запрещен")
	case errors.Is(err, service.ErrOrderNotFound):
		b.sendText(chatID, "Заказ не найден.")
	case errors.Is(err, service.ErrGatewayUnavailable):
		b.sendText(chatID, "Оплата криптовалютой сейчас недоступна. Выберите оплату картой.")
	case errors.Is(err, service.ErrGateway):
		b.logger.Warn("payment gateway", zap.Error(err))
		b.sendText(chatID, "Платёжный сервис временно недоступен. Попробуйте позже.")
	case errors.Is(err, service.ErrMethodNotAllowed):
		b.sendText(chatID, "Этот заказ можно оплатить только картой.")
	case errors.Is(err, service.ErrNoPendingAction):
		b.sendText(chatID, "Подтверждение устарело. Выберите действие заново.")
	case errors.Is(err, service.ErrInvalidTransition):
		b.sendText(chatID, "Статус заказа уже изменился, действие недоступно.")
	default:
		b.logger.Error("request failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(chatID, "Что-то пошло не так. Попробуйте позже.")
	}
}

// show edits messageID in place when set, otherwise sends a new message.
func (b *Bot) show(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		edit.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(edit); err == nil {
			return
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send text", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debug("callback ack", zap.Error(err))
	}
}

func (b *Bot) answerAlert(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		b.logger.Debug("callback alert", zap.Error(err))
	}
}
